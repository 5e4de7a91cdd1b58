package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/app"
)

func TestRoomStoreReservesAndReleasesCodes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStore(client, time.Minute, "node-a")
	peer := NewRoomStore(client, time.Minute, "node-b")

	if !store.Insert(app.NewRoom("ABCD", 1)) {
		t.Fatalf("expected insert to succeed")
	}
	if !mr.Exists("trivia:room:ABCD") {
		t.Fatalf("expected redis key to be set")
	}
	if owner, _ := mr.Get("trivia:room:ABCD"); owner != "node-a" {
		t.Fatalf("expected owner node-a, got %q", owner)
	}
	if peer.Insert(app.NewRoom("ABCD", 1)) {
		t.Fatalf("expected another process to be refused the code")
	}

	mr.FastForward(30 * time.Second)
	if rooms := store.List(); len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	if ttl := mr.TTL("trivia:room:ABCD"); ttl != time.Minute {
		t.Fatalf("expected List to refresh ttl, got %v", ttl)
	}

	store.Delete("ABCD")
	if mr.Exists("trivia:room:ABCD") {
		t.Fatalf("expected redis key to be removed")
	}
	if !peer.Insert(app.NewRoom("ABCD", 1)) {
		t.Fatalf("expected released code to be reusable")
	}
}

func TestRoomStoreRefusesWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewRoomStore(client, time.Minute, "node-a")
	mr.Close()

	if store.Insert(app.NewRoom("ABCD", 1)) {
		t.Fatalf("expected insert to fail without redis")
	}
	if _, ok := store.Get("ABCD"); ok {
		t.Fatalf("expected no local room after a failed reservation")
	}
}
