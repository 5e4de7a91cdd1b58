package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"trivia-session-service/internal/domain"
)

type roomRow struct {
	bun.BaseModel `bun:"table:rooms"`

	Code         string    `bun:"code,pk"`
	Rounds       int       `bun:"rounds,notnull"`
	CurrentRound int       `bun:"current_round,notnull"`
	Status       string    `bun:"status,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type playerRow struct {
	bun.BaseModel `bun:"table:players"`

	RoomCode  string `bun:"room_code,pk"`
	PlayerID  string `bun:"player_id,pk"`
	Name      string `bun:"name,notnull"`
	Score     int    `bun:"score,notnull"`
	Connected bool   `bun:"connected,notnull"`
	Position  int    `bun:"position,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers"`

	ID         int64  `bun:"id,pk,autoincrement"`
	RoomCode   string `bun:"room_code,notnull"`
	Round      int    `bun:"round_no,notnull"`
	QuestionID string `bun:"question_id,notnull"`
	Category   string `bun:"category,notnull"`
	PlayerID   string `bun:"player_id,notnull"`
	PlayerName string `bun:"player_name,notnull"`
	Text       string `bun:"answer_text,notnull"`
	Choice     *int   `bun:"answer_choice"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
	Awarded    int    `bun:"awarded,notnull"`
	TimeMs     int64  `bun:"time_spent_ms,notnull"`
}

// ResultStore persists room reports in the rooms/players/answers tables. Each save
// replaces the room's previous snapshot inside one transaction.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveRoom(ctx context.Context, report domain.RoomReport) error {
	room := roomRow{
		Code:         report.RoomCode,
		Rounds:       report.Rounds,
		CurrentRound: report.CurrentRound,
		Status:       string(report.Status),
		UpdatedAt:    report.UpdatedAt,
	}
	players := make([]playerRow, 0, len(report.Players))
	for i, p := range report.Players {
		players = append(players, playerRow{
			RoomCode:  report.RoomCode,
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
			Position:  i,
		})
	}
	answers := make([]answerRow, 0, len(report.Answers))
	for _, a := range report.Answers {
		answers = append(answers, answerRow{
			RoomCode:   report.RoomCode,
			Round:      a.Round,
			QuestionID: a.QuestionID,
			Category:   a.Category,
			PlayerID:   a.PlayerID,
			PlayerName: a.PlayerName,
			Text:       a.Text,
			Choice:     a.Choice,
			IsCorrect:  a.IsCorrect,
			Awarded:    a.Awarded,
			TimeMs:     a.TimeMs,
		})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&room).
			On("CONFLICT (code) DO UPDATE").
			Set("rounds = EXCLUDED.rounds").
			Set("current_round = EXCLUDED.current_round").
			Set("status = EXCLUDED.status").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*playerRow)(nil)).Where("room_code = ?", report.RoomCode).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*answerRow)(nil)).Where("room_code = ?", report.RoomCode).Exec(ctx); err != nil {
			return err
		}
		if len(players) > 0 {
			if _, err := tx.NewInsert().Model(&players).Exec(ctx); err != nil {
				return err
			}
		}
		if len(answers) > 0 {
			if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save room %s: %w", report.RoomCode, err)
	}
	return nil
}

func (s *ResultStore) LoadRoom(ctx context.Context, code string) (domain.RoomReport, error) {
	var room roomRow
	err := s.db.NewSelect().Model(&room).Where("code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoomReport{}, domain.ErrResultsNotFound
	}
	if err != nil {
		return domain.RoomReport{}, fmt.Errorf("load room %s: %w", code, err)
	}

	var players []playerRow
	if err := s.db.NewSelect().Model(&players).
		Where("room_code = ?", code).
		Order("score DESC", "position ASC").
		Scan(ctx); err != nil {
		return domain.RoomReport{}, fmt.Errorf("load players %s: %w", code, err)
	}
	var answers []answerRow
	if err := s.db.NewSelect().Model(&answers).
		Where("room_code = ?", code).
		Order("round_no ASC", "id ASC").
		Scan(ctx); err != nil {
		return domain.RoomReport{}, fmt.Errorf("load answers %s: %w", code, err)
	}

	report := domain.RoomReport{
		RoomCode:     room.Code,
		Rounds:       room.Rounds,
		CurrentRound: room.CurrentRound,
		Status:       domain.RoomStatus(room.Status),
		UpdatedAt:    room.UpdatedAt,
		Players:      make([]domain.PlayerView, 0, len(players)),
		Answers:      make([]domain.AnswerRecord, 0, len(answers)),
	}
	for _, p := range players {
		report.Players = append(report.Players, domain.PlayerView{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	for _, a := range answers {
		report.Answers = append(report.Answers, domain.AnswerRecord{
			Round:      a.Round,
			QuestionID: a.QuestionID,
			Category:   a.Category,
			PlayerID:   a.PlayerID,
			PlayerName: a.PlayerName,
			Text:       a.Text,
			Choice:     a.Choice,
			IsCorrect:  a.IsCorrect,
			Awarded:    a.Awarded,
			TimeMs:     a.TimeMs,
		})
	}
	return report, nil
}
