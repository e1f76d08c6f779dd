package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SESSION_DURATION", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.SessionDuration != 24*time.Hour {
		t.Errorf("SessionDuration = %v, want 24h", cfg.SessionDuration)
	}
	if cfg.TrustedProxies != "" {
		t.Errorf("TrustedProxies = %q, want none by default", cfg.TrustedProxies)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
}

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{
			name:  "int parses",
			value: "42",
			check: func(t *testing.T) {
				if got := getEnvInt("FELLOWSHIP_TEST_VALUE", 1); got != 42 {
					t.Errorf("getEnvInt = %d, want 42", got)
				}
			},
		},
		{
			name:  "invalid int falls back",
			value: "many",
			check: func(t *testing.T) {
				if got := getEnvInt("FELLOWSHIP_TEST_VALUE", 7); got != 7 {
					t.Errorf("getEnvInt = %d, want 7", got)
				}
			},
		},
		{
			name:  "bool parses",
			value: "true",
			check: func(t *testing.T) {
				if !getEnvBool("FELLOWSHIP_TEST_VALUE", false) {
					t.Error("getEnvBool should be true")
				}
			},
		},
		{
			name:  "duration parses",
			value: "90m",
			check: func(t *testing.T) {
				if got := getEnvDuration("FELLOWSHIP_TEST_VALUE", time.Second); got != 90*time.Minute {
					t.Errorf("getEnvDuration = %v, want 90m", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FELLOWSHIP_TEST_VALUE", tt.value)
			tt.check(t)
		})
	}
}
