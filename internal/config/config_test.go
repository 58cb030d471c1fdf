package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if cfg.ListenAddr != ":5000" {
		t.Errorf("expected default listen addr :5000, got %s", cfg.ListenAddr)
	}
	if cfg.LoginAttempts != 5 {
		t.Errorf("expected 5 login attempts, got %d", cfg.LoginAttempts)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:6000")
	t.Setenv("READ_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:6000" {
		t.Errorf("env override not applied, got %s", cfg.ListenAddr)
	}
	if cfg.ReadTimeout.Minutes() != 2 {
		t.Errorf("READ_TIMEOUT override not applied, got %v", cfg.ReadTimeout)
	}
}

func TestInvalid(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed READ_TIMEOUT")
	}

	t.Setenv("READ_TIMEOUT", "0s")
	t.Setenv("MAX_LINE_BYTES", "0")
	if _, err := Load(); err == nil {
		t.Error("expected validation error for MAX_LINE_BYTES=0")
	}
}
