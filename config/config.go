package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the Lambdas and the local server.
type Config struct {
	TableName       string
	BucketName      string
	DiscordCmd      string
	ProcessStepFunc string
	PostStepFunc    string
	WebhookURL      string
	PublicKeyPath   string
	AppIDPath       string
	LogLevel        string
	Timezone        string
	Port            string

	ImageContrastFactor   float64
	ImageSaturationFactor float64

	// Resolved from SSM by ResolveSecrets, or set directly for local runs.
	PublicKey string
	AppID     string
}

// ParameterGetter reads a single (possibly encrypted) parameter.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

var ErrMissingSetting = errors.New("missing required setting")

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TableName:       os.Getenv("TABLE_NAME"),
		BucketName:      os.Getenv("BUCKET_NAME"),
		DiscordCmd:      getenv("DISCORD_CMD", "irus"),
		ProcessStepFunc: os.Getenv("PROCESS_STEP_FUNC"),
		PostStepFunc:    os.Getenv("POST_STEP_FUNC"),
		WebhookURL:      getenv("WEBHOOK_URL", "https://discord.com/api/v10/webhooks"),
		PublicKeyPath:   os.Getenv("PUBLIC_KEY_PATH"),
		AppIDPath:       os.Getenv("APP_ID_PATH"),
		LogLevel:        getenv("LOG_LEVEL", "INFO"),
		Timezone:        getenv("TIMEZONE", "Australia/Sydney"),
		Port:            getenv("PORT", "8080"),
		PublicKey:       os.Getenv("PUBLIC_KEY"),
		AppID:           os.Getenv("APP_ID"),
	}

	var err error
	if cfg.ImageContrastFactor, err = getfloat("IMAGE_CONTRAST_FACTOR", 1.5); err != nil {
		return nil, err
	}
	if cfg.ImageSaturationFactor, err = getfloat("IMAGE_SATURATION_FACTOR", 0.7); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Require checks that the named settings are present.
func (c *Config) Require(names ...string) error {
	values := map[string]string{
		"TABLE_NAME":        c.TableName,
		"BUCKET_NAME":       c.BucketName,
		"PROCESS_STEP_FUNC": c.ProcessStepFunc,
		"POST_STEP_FUNC":    c.PostStepFunc,
		"WEBHOOK_URL":       c.WebhookURL,
		"PUBLIC_KEY_PATH":   c.PublicKeyPath,
		"APP_ID_PATH":       c.AppIDPath,
	}
	for _, name := range names {
		if values[name] == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, name)
		}
	}
	return nil
}

// ResolveSecrets fills PublicKey and AppID from the parameter store unless already set.
func (c *Config) ResolveSecrets(ctx context.Context, params ParameterGetter) error {
	if c.PublicKey == "" {
		if c.PublicKeyPath == "" {
			return fmt.Errorf("%w: PUBLIC_KEY_PATH", ErrMissingSetting)
		}
		v, err := params.GetParameter(ctx, c.PublicKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read public key: %w", err)
		}
		c.PublicKey = v
	}
	if c.AppID == "" {
		if c.AppIDPath == "" {
			return fmt.Errorf("%w: APP_ID_PATH", ErrMissingSetting)
		}
		v, err := params.GetParameter(ctx, c.AppIDPath)
		if err != nil {
			return fmt.Errorf("failed to read app id: %w", err)
		}
		c.AppID = v
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getfloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
