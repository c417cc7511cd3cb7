package config

import (
	"os"
	"testing"
	"time"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Namespace != "freeler" {
		t.Fatalf("expected freeler namespace, got %q", cfg.Storage.Namespace)
	}
	if cfg.Lookup.TriggerLength != 8 {
		t.Fatalf("expected trigger length 8, got %d", cfg.Lookup.TriggerLength)
	}
	if cfg.Auth.Timeout() != 15*time.Second {
		t.Fatalf("unexpected auth timeout %v", cfg.Auth.Timeout())
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STUB_PORT", "9090")
	t.Setenv("LOOKUP_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "redis" || cfg.Redis.DB != 3 {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Storage, cfg.Redis)
	}
	if cfg.Stub.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %q", cfg.Stub.Addr())
	}
	if cfg.Lookup.Timeout() != 0 {
		t.Fatalf("expected zero timeout, got %v", cfg.Lookup.Timeout())
	}
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REDIS_DB", "zero")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}
