package app_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
)

type sequenceStore struct {
	mu    sync.Mutex
	saved []domain.RoomReport
}

func (s *sequenceStore) SaveRoom(_ context.Context, r domain.RoomReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return nil
}

func (s *sequenceStore) LoadRoom(context.Context, string) (domain.RoomReport, error) {
	return domain.RoomReport{}, domain.ErrResultsNotFound
}

func (s *sequenceStore) rounds() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.saved))
	for _, r := range s.saved {
		out = append(out, r.CurrentRound)
	}
	return out
}

func drainRecorder(t *testing.T, rec *app.Recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rec.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func snapshot(code string, round int, at time.Time) domain.RoomReport {
	return domain.RoomReport{RoomCode: code, CurrentRound: round, UpdatedAt: at}
}

func TestRecorderSavesRoomsInOrderAndDrainsOnShutdown(t *testing.T) {
	store := &sequenceStore{}
	rec := app.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	rec.Record(snapshot("AAAA", 1, at))
	rec.Record(snapshot("BBBB", 2, at))
	rec.Record(snapshot("CCCC", 3, at))
	drainRecorder(t, rec)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 3 {
		t.Fatalf("expected 3 saves, got %d", len(store.saved))
	}
	for i, code := range []string{"AAAA", "BBBB", "CCCC"} {
		if store.saved[i].RoomCode != code {
			t.Fatalf("save %d out of order: %s", i, store.saved[i].RoomCode)
		}
	}
}

func TestRecorderKeepsLatestSnapshotPerRoom(t *testing.T) {
	store := &sequenceStore{}
	rec := app.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	for round := 1; round <= 500; round++ {
		rec.Record(snapshot("ABCD", round, at.Add(time.Duration(round)*time.Second)))
	}
	drainRecorder(t, rec)

	if got := store.rounds(); len(got) != 1 || got[0] != 500 {
		t.Fatalf("expected only the latest snapshot, got %v", got)
	}
}

func TestRecorderSaveSupersedesQueuedSnapshot(t *testing.T) {
	store := &sequenceStore{}
	rec := app.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	rec.Record(snapshot("ABCD", 1, at))
	if err := rec.Save(context.Background(), snapshot("ABCD", 2, at.Add(time.Second))); err != nil {
		t.Fatalf("save: %v", err)
	}
	drainRecorder(t, rec)

	if got := store.rounds(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected the final snapshot to be the last write, got %v", got)
	}
}

func TestRecorderSaveKeepsNewerQueuedSnapshot(t *testing.T) {
	store := &sequenceStore{}
	rec := app.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	rec.Record(snapshot("ABCD", 3, at.Add(time.Minute)))
	if err := rec.Save(context.Background(), snapshot("ABCD", 2, at)); err != nil {
		t.Fatalf("save: %v", err)
	}
	drainRecorder(t, rec)

	if got := store.rounds(); len(got) != 2 || got[1] != 3 {
		t.Fatalf("expected the newer snapshot to be written last, got %v", got)
	}
}
