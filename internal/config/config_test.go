package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all vars set",
			envVars: map[string]string{
				"PORT":                 "8080",
				"ENV":                  "production",
				"DATABASE_URL":         "postgres://localhost/test",
				"TIMEZONE":             "America/Sao_Paulo",
				"COOLDOWN_SECONDS":     "120",
				"CONFIDENCE_THRESHOLD": "60",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.Timezone == "America/Sao_Paulo" &&
					c.Cooldown() == 2*time.Minute &&
					c.ConfidenceThreshold == 60
			},
		},
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://localhost/test",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.Cooldown() == time.Minute &&
					c.ConfidenceThreshold == 70 &&
					c.SeparationMargin == 5 &&
					c.LivenessThreshold == 100 &&
					c.MinEnrollSamples == 10 &&
					c.EyeProvider == ""
			},
		},
		{
			name:    "fails without database url",
			envVars: map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config check failed: %+v", cfg)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("want UTC, got %v", loc)
	}

	cfg = &Config{Timezone: "Not/AZone"}
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for bogus timezone")
	}
}
