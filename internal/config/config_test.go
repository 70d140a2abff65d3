package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "file:data/houseparty.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LiveScore.EventID != "401772988" {
		t.Errorf("EventID = %q", cfg.LiveScore.EventID)
	}
	if cfg.LiveScore.TTLLive != 30*time.Second {
		t.Errorf("TTLLive = %v", cfg.LiveScore.TTLLive)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LIVESCORE_TTL_PRE", "2m")
	t.Setenv("SQUARES_FALLBACK_ALL_GUESTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LiveScore.TTLPre != 2*time.Minute {
		t.Errorf("TTLPre = %v", cfg.LiveScore.TTLPre)
	}
	if !cfg.SquaresAllGuests {
		t.Error("SquaresAllGuests = false")
	}
}
