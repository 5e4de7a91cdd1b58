package memory

import (
	"context"
	"sync"

	"trivia-session-service/internal/domain"
)

// ResultStore keeps room reports for the lifetime of the process.
type ResultStore struct {
	mu      sync.RWMutex
	reports map[string]domain.RoomReport
}

func NewResultStore() *ResultStore {
	return &ResultStore{reports: make(map[string]domain.RoomReport)}
}

func (s *ResultStore) SaveRoom(_ context.Context, report domain.RoomReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.RoomCode] = report
	return nil
}

func (s *ResultStore) LoadRoom(_ context.Context, code string) (domain.RoomReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[code]
	if !ok {
		return domain.RoomReport{}, domain.ErrResultsNotFound
	}
	return report, nil
}
