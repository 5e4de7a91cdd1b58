package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-session-service/internal/domain"
)

// QuestionStore reads and imports the question bank in the questions table
// (one JSONB payload per row).
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (l *QuestionStore) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, category, data FROM questions ORDER BY category, id`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			id, category string
			raw          []byte
		)
		if err := rows.Scan(&id, &category, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		q.ID = id
		q.Category = category
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

// ImportQuestions upserts questions by id in one batch and returns how many were written.
func (l *QuestionStore) ImportQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return 0, fmt.Errorf("marshal question %s: %w", q.ID, err)
		}
		batch.Queue(`INSERT INTO questions (id, category, data) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET category = EXCLUDED.category, data = EXCLUDED.data`,
			q.ID, q.Category, string(data))
	}
	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range questions {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("import question %s: %w", questions[i].ID, err)
		}
	}
	return len(questions), nil
}
