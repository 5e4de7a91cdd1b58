package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Game struct {
		DefaultRounds int     `yaml:"default_rounds"`
		MaxPlayers    int     `yaml:"max_players"`
		MinTimeLimit  int     `yaml:"min_time_limit"`
		MaxTimeLimit  int     `yaml:"max_time_limit"`
		RevealDelay   string  `yaml:"reveal_delay"`
		IdleTimeout   string  `yaml:"idle_timeout"`
		SweepInterval string  `yaml:"sweep_interval"`
		CodeAttempts  int     `yaml:"code_attempts"`
		RateLimit     float64 `yaml:"rate_limit"`
		RateBurst     int     `yaml:"rate_burst"`
	} `yaml:"game"`
	Scoring struct {
		MaxPoints int    `yaml:"max_points"`
		MinPoints int    `yaml:"min_points"`
		Matcher   string `yaml:"matcher"`
	} `yaml:"scoring"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Catalog.Path = "data/tasks.json"
	cfg.Game.DefaultRounds = 6
	cfg.Game.MaxPlayers = 10
	cfg.Game.MinTimeLimit = 40
	cfg.Game.MaxTimeLimit = 60
	cfg.Game.RevealDelay = "5s"
	cfg.Game.IdleTimeout = "30m"
	cfg.Game.SweepInterval = "1m"
	cfg.Game.CodeAttempts = 32
	cfg.Game.RateLimit = 10
	cfg.Game.RateBurst = 20
	cfg.Scoring.MaxPoints = 1000
	cfg.Scoring.MinPoints = 100
	cfg.Scoring.Matcher = "normalized"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
