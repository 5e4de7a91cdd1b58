package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server:\n  port: \"9090\"\ngame:\n  default_rounds: 3\n  reveal_delay: 2s\nscoring:\n  max_points: 500\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Game.DefaultRounds != 3 {
		t.Fatalf("expected 3 rounds, got %d", cfg.Game.DefaultRounds)
	}
	if cfg.Game.MaxPlayers != 10 {
		t.Fatalf("expected default max players, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Scoring.MaxPoints != 500 || cfg.Scoring.MinPoints != 100 {
		t.Fatalf("unexpected scoring %+v", cfg.Scoring)
	}
	if d := TTLDuration(cfg.Game.RevealDelay, time.Minute); d != 2*time.Second {
		t.Fatalf("expected 2s reveal delay, got %v", d)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.DefaultRounds != 6 || cfg.Catalog.Path == "" {
		t.Fatalf("expected defaults, got %+v", cfg.Game)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Second); d != time.Second {
		t.Fatalf("empty: got %v", d)
	}
	if d := TTLDuration("soon", time.Second); d != time.Second {
		t.Fatalf("invalid: got %v", d)
	}
}
