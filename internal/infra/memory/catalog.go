package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-session-service/internal/domain"
)

// QuestionLoader fetches the question bank from a backing store (task file, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Catalog holds the current question bank in memory. A reload swaps the whole bank, and
// Draw hands out deep copies, so questions already in play are never touched.
type Catalog struct {
	loader QuestionLoader
	sf     singleflight.Group

	mu   sync.RWMutex
	bank []domain.Question

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalog(loader QuestionLoader) *Catalog {
	return &Catalog{
		loader: loader,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reload replaces the bank from the loader. Concurrent calls share one load.
func (c *Catalog) Reload(ctx context.Context) (domain.CatalogCounts, error) {
	result, err, _ := c.sf.Do("reload", func() (interface{}, error) {
		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return domain.CatalogCounts{}, fmt.Errorf("load questions: %w", err)
		}
		bank := normalizeBank(questions)
		c.mu.Lock()
		c.bank = bank
		c.mu.Unlock()
		return countBank(bank), nil
	})
	if err != nil {
		return domain.CatalogCounts{}, err
	}
	return result.(domain.CatalogCounts), nil
}

func (c *Catalog) Counts() domain.CatalogCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return countBank(c.bank)
}

// Draw picks a random unused question, preferring preferredMode when any is left.
func (c *Catalog) Draw(used map[string]struct{}, preferredMode string, filter domain.FilterMode) (domain.Question, error) {
	c.mu.RLock()
	candidates := c.candidatesLocked(used, preferredMode, filter)
	if len(candidates) == 0 && preferredMode != "" {
		candidates = c.candidatesLocked(used, "", filter)
	}
	if len(candidates) == 0 {
		c.mu.RUnlock()
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	c.rndMu.Lock()
	pick := candidates[c.rnd.Intn(len(candidates))]
	c.rndMu.Unlock()
	q := pick.Clone()
	c.mu.RUnlock()
	return q, nil
}

func (c *Catalog) Available(used map[string]struct{}, filter domain.FilterMode) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.candidatesLocked(used, "", filter))
}

func (c *Catalog) HasMode(mode string, filter domain.FilterMode) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.bank {
		if q.EffectiveMode() == mode && filter.Allows(mode) {
			return true
		}
	}
	return false
}

func (c *Catalog) candidatesLocked(used map[string]struct{}, mode string, filter domain.FilterMode) []domain.Question {
	var out []domain.Question
	for _, q := range c.bank {
		if _, seen := used[q.ID]; seen {
			continue
		}
		qm := q.EffectiveMode()
		if !filter.Allows(qm) {
			continue
		}
		if mode != "" && qm != mode {
			continue
		}
		out = append(out, q)
	}
	return out
}

// normalizeBank drops duplicate ids (first wins) and fills defaults.
func normalizeBank(questions []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(questions))
	bank := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" || q.Prompt == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		q = q.Clone()
		if q.Type == "" {
			q.Type = domain.QuestionText
		}
		q.Mode = q.EffectiveMode()
		bank = append(bank, q)
	}
	return bank
}

func countBank(bank []domain.Question) domain.CatalogCounts {
	counts := domain.CatalogCounts{Categories: make(map[string]int)}
	for _, q := range bank {
		counts.Categories[q.Category]++
		counts.Total++
	}
	return counts
}

// StaticQuestionLoader serves a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	for i, q := range l.questions {
		out[i] = q.Clone()
	}
	return out, nil
}
