package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != "file" {
		t.Errorf("Store = %q, want file", cfg.Store)
	}
	if cfg.AudioBackend != "ffmpeg" {
		t.Errorf("AudioBackend = %q, want ffmpeg", cfg.AudioBackend)
	}
	if cfg.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", cfg.Language)
	}
	if cfg.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want 15s", cfg.ConnectTimeout)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without GEMINI_API_KEY")
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DOCUVOX_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with postgres store and no DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/docuvox")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != "postgres" {
		t.Errorf("Store = %q, want postgres", cfg.Store)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUDIO_BACKEND", "jack")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted unknown audio backend")
	}
}

func TestLoadInvalidTimeoutFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LIVE_CONNECT_TIMEOUT_MS", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectTimeout != 15*time.Second {
		t.Errorf("ConnectTimeout = %v, want default 15s", cfg.ConnectTimeout)
	}
}
