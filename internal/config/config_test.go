package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory || cfg.Quiz.PassPercentage != 50 || cfg.Server.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: "9000"
storage:
  driver: postgres
postgres:
  url: postgres://file
quiz:
  pass_percentage: 60
  enforce_deadline: true
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Storage.Driver != DriverPostgres {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Postgres.URL != "postgres://env" || cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("env overrides not applied: %q %q", cfg.Postgres.URL, cfg.Auth.JWTSecret)
	}
	if cfg.Quiz.PassPercentage != 60 || !cfg.Quiz.EnforceDeadline {
		t.Fatalf("quiz section not applied: %+v", cfg.Quiz)
	}
	if cfg.AnswerKey.TTL != "10m" {
		t.Fatalf("defaults must survive partial files, got %q", cfg.AnswerKey.TTL)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
