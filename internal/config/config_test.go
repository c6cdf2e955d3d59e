package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"NLC_URL", "NLC_USERNAME", "PI_URL", "PI_USERNAME", "WATSON_TIMEOUT", "NLC_STATUS_DELAY", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Timeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.Timeout)
	}
	if cfg.StatusDelay != 2*time.Second {
		t.Fatalf("expected 2s status delay, got %s", cfg.StatusDelay)
	}
	if cfg.HasNLC() || cfg.HasPersonalityInsights() {
		t.Fatalf("expected no live services without env")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NLC_URL", "https://gateway.example.com/natural-language-classifier/api")
	t.Setenv("NLC_USERNAME", "user")
	t.Setenv("NLC_PASSWORD", "pass")
	t.Setenv("NLC_CLASSIFIER_ID", "abc-123")
	t.Setenv("NLC_STATUS_DELAY", "500ms")
	t.Setenv("WATSON_RATE_LIMIT", "2.5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.HasNLC() {
		t.Fatalf("expected nlc to be configured")
	}
	if cfg.NLCClassifierID != "abc-123" {
		t.Fatalf("unexpected classifier id %q", cfg.NLCClassifierID)
	}
	if cfg.StatusDelay != 500*time.Millisecond {
		t.Fatalf("unexpected status delay %s", cfg.StatusDelay)
	}
	if cfg.RateLimit != 2.5 {
		t.Fatalf("unexpected rate limit %v", cfg.RateLimit)
	}
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TRAINING_DURATION", "5s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load server config: %v", err)
	}
	if cfg.HTTPPort != "9090" || cfg.TrainingDuration != 5*time.Second || cfg.RedisDB != 3 {
		t.Fatalf("unexpected server config %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected default token ttl, got %s", cfg.TokenTTL)
	}
}

func TestLoadServerConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("TRAINING_DURATION", "soon")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
}
