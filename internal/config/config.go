package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Attendance policy
	Timezone        string `envconfig:"TIMEZONE" default:"Local"`
	CooldownSeconds int    `envconfig:"COOLDOWN_SECONDS" default:"60"`

	// Recognition thresholds. Distance scale: lower = more confident.
	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"70"`
	SeparationMargin    float64 `envconfig:"SEPARATION_MARGIN" default:"5"`
	MinEnrollSamples    int     `envconfig:"MIN_ENROLL_SAMPLES" default:"10"`

	// Liveness
	LivenessThreshold float64 `envconfig:"LIVENESS_THRESHOLD" default:"100"`

	// Optional eye-landmark capability for the secondary blink signal.
	// Empty disables it; "rekognition" uses AWS Rekognition.
	EyeProvider string `envconfig:"EYE_PROVIDER" default:""`
	AWSRegion   string `envconfig:"AWS_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Cooldown returns the minimum interval between two accepted punches
// for the same identity.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Location resolves the deployment time zone used to derive day keys.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
