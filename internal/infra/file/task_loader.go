package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"trivia-session-service/internal/domain"
)

// TaskLoader reads the question bank from a JSON or YAML task file keyed by category.
// Two entry shapes are accepted:
//
//	{"type": "mcq"|"text", "title": ..., "options": [...], "correctIndex": n, "accept": [...], "mode": ...}
//	{"prompt": ..., "answers": [...]}
type TaskLoader struct {
	path string
}

func NewTaskLoader(path string) *TaskLoader {
	return &TaskLoader{path: path}
}

type rawTask struct {
	ID           string   `json:"id" yaml:"id"`
	Type         string   `json:"type" yaml:"type"`
	Title        *string  `json:"title" yaml:"title"`
	Prompt       *string  `json:"prompt" yaml:"prompt"`
	Options      []any    `json:"options" yaml:"options"`
	CorrectIndex *int     `json:"correctIndex" yaml:"correctIndex"`
	Accept       []any    `json:"accept" yaml:"accept"`
	Answers      []any    `json:"answers" yaml:"answers"`
	Mode         string   `json:"mode" yaml:"mode"`
	Subtype      string   `json:"subtype" yaml:"subtype"`
	Difficulty   any      `json:"difficulty" yaml:"difficulty"`
	TimeRef      int      `json:"timeRef" yaml:"timeRef"`
	Tags         []string `json:"tags" yaml:"tags"`
}

// LoadQuestions returns an empty bank when the file does not exist yet.
func (l *TaskLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	raw := map[string][]rawTask{}
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", l.path, err)
	}
	return transform(raw), nil
}

// transform converts raw categorized tasks into questions. Categories are visited in
// name order so generated ids are stable between reloads.
func transform(raw map[string][]rawTask) []domain.Question {
	categories := make([]string, 0, len(raw))
	for category := range raw {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var out []domain.Question
	counter := 1
	nextID := func(id string) string {
		if id == "" {
			id = fmt.Sprintf("q%d", counter)
		}
		counter++
		return id
	}

	for _, category := range categories {
		for _, t := range raw[category] {
			switch {
			case t.Type != "" && t.Title != nil:
				qtype := domain.QuestionType(t.Type)
				if qtype != domain.QuestionMCQ && qtype != domain.QuestionText {
					continue
				}
				q := domain.Question{
					Category:  category,
					Type:      qtype,
					Prompt:    strings.TrimSpace(*t.Title),
					Mode:      t.Mode,
					Subtype:   t.Subtype,
					TimeLimit: t.TimeRef,
					Tags:      t.Tags,
				}
				if t.Difficulty != nil {
					q.Difficulty = fmt.Sprint(t.Difficulty)
				}
				if qtype == domain.QuestionMCQ {
					if len(t.Options) == 0 || t.CorrectIndex == nil {
						continue
					}
					q.Options = stringify(t.Options)
					q.CorrectIndex = *t.CorrectIndex
				} else {
					q.Accept = stringify(t.Accept)
				}
				q.ID = nextID(t.ID)
				q.Mode = q.EffectiveMode()
				out = append(out, q)
			case t.Prompt != nil && t.Answers != nil:
				out = append(out, domain.Question{
					ID:       nextID(t.ID),
					Category: category,
					Type:     domain.QuestionText,
					Prompt:   strings.TrimSpace(*t.Prompt),
					Accept:   stringify(t.Answers),
					Mode:     domain.ModeBase,
				})
			}
		}
	}
	return out
}

func stringify(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
