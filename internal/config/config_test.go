package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STREAMHUB_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 || cfg.Store != "postgres" || cfg.FeedCacheTTL != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AllowSelfSubscribe {
		t.Fatal("self-subscription must be disabled by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamhub.yaml")
	contents := []byte(`
port: 9000
store: memory
logLevel: debug
feedCacheTTL: 5s
redis:
  addr: cache:6379
objectStorage:
  bucket: media
allowSelfSubscribe: true
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("STREAMHUB_CONFIG", path)
	t.Setenv("STREAMHUB_PORT", "9100")
	t.Setenv("STREAMHUB_ALLOW_SELF_SUBSCRIBE", "false")
	t.Setenv("STREAMHUB_RATE_LIMIT_BURST", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 9100 {
		t.Fatalf("expected env to override file port, got %d", cfg.AppPort)
	}
	if cfg.Store != "memory" || cfg.Redis.Addr != "cache:6379" || cfg.ObjectStorage.Bucket != "media" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.FeedCacheTTL != 5*time.Second {
		t.Fatalf("expected feed cache ttl from file, got %v", cfg.FeedCacheTTL)
	}
	if cfg.AllowSelfSubscribe {
		t.Fatal("expected env to disable self-subscription")
	}
	if cfg.RateLimitBurst != 10 {
		t.Fatalf("expected invalid env value to keep default burst, got %d", cfg.RateLimitBurst)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("STREAMHUB_CONFIG", "")
	t.Setenv("STREAMHUB_STORE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("STREAMHUB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
