package server

import (
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d, want 20", cfg.HistoryLimit)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.GracePeriod)
	}
	if cfg.AI.MaxTokens != 1024 {
		t.Errorf("AI.MaxTokens = %d, want 1024", cfg.AI.MaxTokens)
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("HISTORY_LIMIT", "50")
	t.Setenv("GRACE_PERIOD_SECONDS", "2")
	t.Setenv("API_KEY", "test-key")
	t.Setenv("AI_BASE_URL", "https://gateway.example/v1")
	t.Setenv("AI_MODEL", "test-model")

	cfg := NewConfigFromEnv()

	if cfg.Port != ":9090" {
		t.Errorf("Port = %q, want :9090", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.GracePeriod != 2*time.Second {
		t.Errorf("GracePeriod = %v, want 2s", cfg.GracePeriod)
	}
	if cfg.AI.APIKey != "test-key" || cfg.AI.BaseURL != "https://gateway.example/v1" || cfg.AI.Model != "test-model" {
		t.Errorf("AI config = %+v", cfg.AI)
	}
}

func TestNewConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("GRACE_PERIOD_SECONDS", "-3")

	cfg := NewConfigFromEnv()

	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d, want default 20", cfg.HistoryLimit)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want default 5s", cfg.GracePeriod)
	}
}

func TestSanitizeClampsZeroValues(t *testing.T) {
	SetConfig(&Config{})
	t.Cleanup(func() { SetConfig(nil) })

	cfg := currentConfig()
	if cfg.HistoryLimit != 20 || cfg.GracePeriod != 5*time.Second || cfg.MaxMessageSize != 4096 {
		t.Errorf("sanitized config = %+v", cfg)
	}
}

func TestRateLimiterExhaustsBurst(t *testing.T) {
	limiter := newRateLimiter(2, time.Hour)

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("burst allowance denied")
	}
	if limiter.allow() {
		t.Error("third call within the window was allowed")
	}
}
