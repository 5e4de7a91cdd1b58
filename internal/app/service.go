package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

// Catalog is the question bank. Draw must return a copy that later reloads cannot change.
type Catalog interface {
	Draw(used map[string]struct{}, preferredMode string, filter domain.FilterMode) (domain.Question, error)
	Available(used map[string]struct{}, filter domain.FilterMode) int
	HasMode(mode string, filter domain.FilterMode) bool
	Counts() domain.CatalogCounts
	Reload(ctx context.Context) (domain.CatalogCounts, error)
}

// ResultStore persists room reports (in-memory, Redis, Postgres).
type ResultStore interface {
	SaveRoom(ctx context.Context, report domain.RoomReport) error
	LoadRoom(ctx context.Context, code string) (domain.RoomReport, error)
}

// Options configures GameService. Zero values fall back to the defaults below.
type Options struct {
	DefaultRounds int
	CodeAttempts  int
	IdleTimeout   time.Duration
	Room          RoomOptions
	Scheduler     Scheduler
	Clock         func() time.Time
	Rand          *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.DefaultRounds <= 0 {
		o.DefaultRounds = 6
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Minute
	}
	if o.Room.MinTimeLimit <= 0 {
		o.Room.MinTimeLimit = 40
	}
	if o.Room.MaxTimeLimit < o.Room.MinTimeLimit {
		o.Room.MaxTimeLimit = o.Room.MinTimeLimit + 20
	}
	if o.Room.Matcher == nil {
		o.Room.Matcher = WithCardChecks(NormalizedMatcher)
	}
	o.Room.Curve = o.Room.Curve.normalized()
	if o.Scheduler == nil {
		o.Scheduler = WallScheduler()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// GameService contains the room use cases driven by the websocket gateway.
type GameService struct {
	registry *Registry
	catalog  Catalog
	results  ResultStore
	recorder *Recorder
	logger   *slog.Logger
	opts     Options

	rndMu sync.Mutex
}

func NewGameService(rooms RoomRepository, catalog Catalog, recorder *Recorder, logger *slog.Logger, opts Options) *GameService {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	var results ResultStore
	if recorder != nil {
		results = recorder.store
	}
	return &GameService{
		registry: NewRegistry(rooms, opts.CodeAttempts, rand.New(rand.NewSource(opts.Rand.Int63()))),
		catalog:  catalog,
		results:  results,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
	}
}

// CreateRoom creates a room administered by c and returns its code.
func (s *GameService) CreateRoom(_ context.Context, c *Client, preferredCode string, rounds int, filter domain.FilterMode) (string, error) {
	if rounds < 1 {
		rounds = s.opts.DefaultRounds
	}
	room, err := s.registry.Create(preferredCode, func(code string) *Room {
		return newRoom(code, rounds, filter, s.opts.Room, s.roomDeps())
	})
	if err != nil {
		s.logger.Error("create room", "err", err)
		return "", err
	}
	room.attachCreator(c)
	s.logger.Info("room created", "room", room.Code(), "rounds", rounds, "filter", filter)
	return room.Code(), nil
}

// AttachAdmin re-binds an admin connection to an existing room.
func (s *GameService) AttachAdmin(_ context.Context, c *Client, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return room.AttachAdmin(c)
}

func (s *GameService) Join(_ context.Context, c *Client, code, name string) (string, error) {
	room, err := s.registry.Get(code)
	if err != nil {
		return "", err
	}
	return room.Join(c, name)
}

func (s *GameService) Start(_ context.Context, c *Client, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return room.Start(c.ID)
}

func (s *GameService) SubmitAnswer(_ context.Context, code, playerID, text string, choice *int) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	return room.SubmitAnswer(playerID, text, choice)
}

// End finishes the game, stores the final report and removes the room.
func (s *GameService) End(ctx context.Context, c *Client, code string) error {
	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	if err := room.End(c.ID); err != nil {
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.Save(ctx, room.Report()); err != nil {
			s.logger.Error("save final report", "room", room.Code(), "err", err)
			return nil
		}
	}
	s.registry.Remove(room.Code())
	return nil
}

// Disconnect is called by the gateway when a connection goes away.
func (s *GameService) Disconnect(_ context.Context, c *Client, code string) {
	if code == "" {
		return
	}
	room, err := s.registry.Get(code)
	if err != nil {
		return
	}
	room.Disconnect(c.ID)
}

// Results returns the live report, or the stored one once the room is gone.
func (s *GameService) Results(ctx context.Context, code string) (domain.RoomReport, error) {
	if room, err := s.registry.Get(code); err == nil {
		return room.Report(), nil
	}
	if s.results == nil {
		return domain.RoomReport{}, domain.ErrResultsNotFound
	}
	return s.results.LoadRoom(ctx, domain.NormalizeCode(code))
}

// PlayerResults narrows Results to one player.
func (s *GameService) PlayerResults(ctx context.Context, code, playerID string) (domain.RoomReport, error) {
	report, err := s.Results(ctx, code)
	if err != nil {
		return domain.RoomReport{}, err
	}
	out, ok := report.ForPlayer(playerID)
	if !ok {
		return domain.RoomReport{}, domain.ErrUnknownPlayer
	}
	return out, nil
}

func (s *GameService) CatalogCounts() domain.CatalogCounts {
	return s.catalog.Counts()
}

func (s *GameService) ReloadCatalog(ctx context.Context) (domain.CatalogCounts, error) {
	counts, err := s.catalog.Reload(ctx)
	if err != nil {
		s.logger.Error("reload catalog", "err", err)
		return domain.CatalogCounts{}, err
	}
	s.logger.Info("catalog reloaded", "total", counts.Total)
	return counts, nil
}

// Sweep removes idle rooms and returns how many were dropped.
func (s *GameService) Sweep() int {
	removed := s.registry.Sweep(s.opts.Clock(), s.opts.IdleTimeout)
	for _, code := range removed {
		s.logger.Info("idle room removed", "room", code)
	}
	return len(removed)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *GameService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *GameService) roomDeps() roomDeps {
	s.rndMu.Lock()
	seed := s.opts.Rand.Int63()
	s.rndMu.Unlock()

	deps := roomDeps{
		catalog: s.catalog,
		sched:   s.opts.Scheduler,
		now:     s.opts.Clock,
		rnd:     rand.New(rand.NewSource(seed)),
		logger:  s.logger,
	}
	if s.recorder != nil {
		deps.record = s.recorder.Record
	}
	return deps
}
