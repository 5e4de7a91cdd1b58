package app

import "time"

// Cancel stops a scheduled callback. It reports whether the callback was prevented.
type Cancel func() bool

// Scheduler runs f once after d. Rooms use it for question windows and reveal pauses.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
}

type wallScheduler struct{}

// WallScheduler schedules on the runtime timer heap.
func WallScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Cancel {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// roundTimer owns the single pending callback of a room. Callbacks are tagged with a
// generation; anything that cancels or reschedules bumps it, so a callback that already
// left the timer heap becomes a no-op instead of acting on a newer round.
// Callers hold the room lock.
type roundTimer struct {
	sched  Scheduler
	gen    uint64
	cancel Cancel
}

func (t *roundTimer) stop() {
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// arm replaces any pending callback. fire receives the generation it was armed with.
func (t *roundTimer) arm(d time.Duration, fire func(gen uint64)) {
	t.stop()
	gen := t.gen
	t.cancel = t.sched.AfterFunc(d, func() { fire(gen) })
}

// claim is called under the room lock from a fired callback.
func (t *roundTimer) claim(gen uint64) bool {
	if gen != t.gen {
		return false
	}
	t.cancel = nil
	return true
}
