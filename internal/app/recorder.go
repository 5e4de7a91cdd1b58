package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
)

// Recorder persists room reports off the room lock. Only the latest unsaved snapshot of
// each room is kept, so a newer snapshot is never lost or overwritten by an older one.
type Recorder struct {
	store  ResultStore
	logger *slog.Logger
	wake   chan struct{}

	// saveMu serializes writes to the store.
	saveMu sync.Mutex

	mu      sync.Mutex
	pending map[string]domain.RoomReport
	order   []string
}

func NewRecorder(store ResultStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		pending: make(map[string]domain.RoomReport),
	}
}

// Record queues report without blocking, replacing any unsaved snapshot of the same room.
func (r *Recorder) Record(report domain.RoomReport) {
	r.mu.Lock()
	if _, ok := r.pending[report.RoomCode]; !ok {
		r.order = append(r.order, report.RoomCode)
	}
	r.pending[report.RoomCode] = report
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Save writes report synchronously. A queued snapshot of the same room that is not newer
// than report is discarded, and no queued write can land after it.
func (r *Recorder) Save(ctx context.Context, report domain.RoomReport) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	if queued, ok := r.pending[report.RoomCode]; ok && !queued.UpdatedAt.After(report.UpdatedAt) {
		delete(r.pending, report.RoomCode)
	}
	r.mu.Unlock()

	return r.store.SaveRoom(ctx, report)
}

// Run saves queued reports until ctx is done, then drains what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-r.wake:
			r.flush(ctx)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.flush(drainCtx)
			cancel()
			return nil
		}
	}
}

func (r *Recorder) flush(ctx context.Context) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	for _, report := range r.take() {
		if err := r.store.SaveRoom(ctx, report); err != nil {
			r.logger.Error("save room report", "room", report.RoomCode, "err", err)
		}
	}
}

// take empties the queue in first-recorded order.
func (r *Recorder) take() []domain.RoomReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RoomReport, 0, len(r.pending))
	for _, code := range r.order {
		if report, ok := r.pending[code]; ok {
			out = append(out, report)
			delete(r.pending, code)
		}
	}
	r.order = r.order[:0]
	return out
}
