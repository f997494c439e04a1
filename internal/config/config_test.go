package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TIMEZONE", "STORE_TIMEOUT", "ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RETENTION_DAYS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, expected 8081", cfg.Port)
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Errorf("Timezone = %q, expected Asia/Seoul", cfg.Timezone)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout = %v, expected 5s", cfg.StoreTimeout)
	}
	if cfg.Retention() != 90*24*time.Hour {
		t.Errorf("Retention = %v, expected 90 days", cfg.Retention())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORE_TIMEOUT", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SAMPLE_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, expected 9000", cfg.Port)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, expected UTC", cfg.Location)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("StoreTimeout = %v, expected 2s", cfg.StoreTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, expected 2.5", cfg.RateLimitRPS)
	}
	if cfg.SampleSeed != 42 {
		t.Errorf("SampleSeed = %d, expected 42", cfg.SampleSeed)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"zero timeout", "STORE_TIMEOUT", "0s"},
		{"zero retention", "RETENTION_DAYS", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q succeeded, expected error", tc.key, tc.value)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"3", 3 * time.Second},
		{"soon", time.Minute},
	}
	for _, tc := range tests {
		t.Setenv("TEST_DURATION", tc.value)
		if got := getEnvDuration("TEST_DURATION", time.Minute); got != tc.expected {
			t.Errorf("getEnvDuration(%q) = %v, expected %v", tc.value, got, tc.expected)
		}
	}
}
