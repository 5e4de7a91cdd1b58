package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Rooms themselves stay in a local map; the state machine is in-process.
//   - A code is only handed out after SETNX on its liveness key succeeds, so processes
//     sharing the Redis instance never allocate the same code.
//   - List refreshes liveness TTLs; it is called by the idle sweeper.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	owner  string

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration, owner string) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		owner:  owner,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Insert(room *app.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := room.Code()
	if _, ok := s.rooms[code]; ok {
		return false
	}
	ok, err := s.client.SetNX(context.Background(), s.key(code), s.owner, s.ttl).Result()
	if err != nil || !ok {
		return false
	}
	s.rooms[code] = room
	return true
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	// best-effort release
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *RoomStore) List() []*app.Room {
	s.mu.RLock()
	out := make([]*app.Room, 0, len(s.rooms))
	codes := make([]string, 0, len(s.rooms))
	for code, room := range s.rooms {
		out = append(out, room)
		codes = append(codes, code)
	}
	s.mu.RUnlock()

	if len(codes) > 0 && s.ttl > 0 {
		ctx := context.Background()
		pipe := s.client.Pipeline()
		for _, code := range codes {
			pipe.Expire(ctx, s.key(code), s.ttl)
		}
		_, _ = pipe.Exec(ctx)
	}
	return out
}

func (s *RoomStore) key(code string) string {
	return "trivia:room:" + code
}
