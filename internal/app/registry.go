package app

import (
	"math/rand"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 4
)

// RoomRepository stores live rooms by code. Insert must be atomic: it returns false when
// the code is already held, which is what keeps two live rooms from sharing a code.
type RoomRepository interface {
	Insert(room *Room) bool
	Get(code string) (*Room, bool)
	Delete(code string)
	List() []*Room
}

// Registry allocates room codes on top of a RoomRepository.
type Registry struct {
	rooms    RoomRepository
	attempts int

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRegistry(rooms RoomRepository, attempts int, rnd *rand.Rand) *Registry {
	if attempts <= 0 {
		attempts = 32
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{rooms: rooms, attempts: attempts, rnd: rnd}
}

// Create reserves preferred when it is a well-formed free code, otherwise a random one.
// build is called once per candidate code.
func (g *Registry) Create(preferred string, build func(code string) *Room) (*Room, error) {
	preferred = domain.NormalizeCode(preferred)
	if ValidCode(preferred) {
		if room := build(preferred); g.rooms.Insert(room) {
			return room, nil
		}
	}
	for i := 0; i < g.attempts; i++ {
		if room := build(g.randomCode()); g.rooms.Insert(room) {
			return room, nil
		}
	}
	return nil, domain.ErrRoomCreationFailed
}

// Get looks the room up by code, case-insensitively. Unknown codes yield ErrRoomNotFound.
func (g *Registry) Get(code string) (*Room, error) {
	room, ok := g.rooms.Get(domain.NormalizeCode(code))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Remove drops the room and cancels its pending timer.
func (g *Registry) Remove(code string) {
	code = domain.NormalizeCode(code)
	if room, ok := g.rooms.Get(code); ok {
		room.shutdown()
	}
	g.rooms.Delete(code)
}

// Sweep removes rooms nobody has been connected to for idle. It returns the removed codes.
func (g *Registry) Sweep(now time.Time, idle time.Duration) []string {
	var removed []string
	for _, room := range g.rooms.List() {
		if room.IdleFor(now, idle) {
			g.Remove(room.Code())
			removed = append(removed, room.Code())
		}
	}
	return removed
}

func (g *Registry) randomCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[g.rnd.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// ValidCode reports whether code is four uppercase letters or digits.
func ValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
