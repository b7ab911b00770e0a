package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.ECWBaseURL != "https://nybukaapp.eclinicalweb.com" {
		t.Errorf("ECWBaseURL = %q", cfg.ECWBaseURL)
	}
	if cfg.ECWTimeout != 45*time.Second {
		t.Errorf("ECWTimeout = %v, want 45s", cfg.ECWTimeout)
	}
	if cfg.ECWMaxAppointments != 100 {
		t.Errorf("ECWMaxAppointments = %d, want 100", cfg.ECWMaxAppointments)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ECW_SESSION_TTL", "5m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ECWSessionTTL != 5*time.Minute {
		t.Errorf("ECWSessionTTL = %v, want 5m", cfg.ECWSessionTTL)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS should be true")
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("RateLimitPerSecond = %v, want 2.5", cfg.RateLimitPerSecond)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("ECW_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "lots")

	cfg := Load()

	if cfg.ECWTimeout != 45*time.Second {
		t.Errorf("ECWTimeout = %v, want default 45s", cfg.ECWTimeout)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want default 20", cfg.RateLimitBurst)
	}
}
