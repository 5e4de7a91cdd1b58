package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/domain"
)

func TestResultStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewResultStore(client, time.Hour)

	if _, err := store.LoadRoom(ctx, "ABCD"); !errors.Is(err, domain.ErrResultsNotFound) {
		t.Fatalf("expected ErrResultsNotFound, got %v", err)
	}

	choice := 0
	report := domain.RoomReport{
		RoomCode: "ABCD",
		Rounds:   2,
		Status:   domain.StatusFinished,
		Players:  []domain.PlayerView{{PlayerID: "p_1", Name: "Alice", Score: 700}},
		Answers:  []domain.AnswerRecord{{Round: 1, QuestionID: "q1", PlayerID: "p_1", Choice: &choice, IsCorrect: true, Awarded: 700}},
	}
	if err := store.SaveRoom(ctx, report); err != nil {
		t.Fatalf("save: %v", err)
	}

	ttl := mr.TTL("trivia:results:ABCD")
	if ttl < time.Hour || ttl > time.Hour+6*time.Minute {
		t.Fatalf("expected ttl within jitter bounds, got %v", ttl)
	}

	got, err := store.LoadRoom(ctx, "ABCD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.StatusFinished || len(got.Players) != 1 || got.Players[0].Score != 700 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.Answers[0].Choice == nil || *got.Answers[0].Choice != 0 {
		t.Fatalf("expected choice to survive: %+v", got.Answers[0])
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.LoadRoom(ctx, "ABCD"); !errors.Is(err, domain.ErrResultsNotFound) {
		t.Fatalf("expected report to expire, got %v", err)
	}
}
