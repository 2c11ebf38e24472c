package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8082" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL == "" {
		t.Fatalf("expected a default database url")
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected default shutdown timeout: %s", cfg.ShutdownTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/orders")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")

	cfg := Load()
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("override not applied: %s", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/orders" {
		t.Fatalf("override not applied: %s", cfg.DatabaseURL)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("override not applied: %s", cfg.ShutdownTimeout)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	if got := Load().ShutdownTimeout; got != 15*time.Second {
		t.Fatalf("expected default on bad value, got %s", got)
	}
}
