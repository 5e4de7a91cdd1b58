package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/domain"
)

// ResultStore keeps room reports as JSON values: SET trivia:results:{code} <report>.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ResultStore) SaveRoom(ctx context.Context, report domain.RoomReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(report.RoomCode), data, s.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("save report %s: %w", report.RoomCode, err)
	}
	return nil
}

func (s *ResultStore) LoadRoom(ctx context.Context, code string) (domain.RoomReport, error) {
	data, err := s.client.Get(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RoomReport{}, domain.ErrResultsNotFound
	}
	if err != nil {
		return domain.RoomReport{}, fmt.Errorf("load report %s: %w", code, err)
	}
	var report domain.RoomReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RoomReport{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}

func (s *ResultStore) key(code string) string {
	return "trivia:results:" + code
}

// ttlWithJitter adds up to 10% so reports of a busy period do not expire together.
func (s *ResultStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
