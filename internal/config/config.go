package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig
	Redis    RedisConfig
	Bestiary BestiaryConfig
	DND5E    DND5EConfig
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	URL string // Empty keeps the combat log in memory
}

// BestiaryConfig points at the YAML monster roster
type BestiaryConfig struct {
	Path string
}

// DND5EConfig holds D&D 5e API configuration
type DND5EConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Bestiary: BestiaryConfig{
			Path: getEnvOrDefault("BESTIARY_PATH", "configs/bestiary.yaml"),
		},
		DND5E: DND5EConfig{
			BaseURL: getEnvOrDefault("DND5E_API_URL", "https://www.dnd5eapi.co/api"),
			Timeout: 10 * time.Second,
		},
	}

	enabled, err := getEnvAsBoolOrDefault("DND5E_ENABLED", false)
	if err != nil {
		return nil, err
	}
	cfg.DND5E.Enabled = enabled

	timeout, err := getEnvAsDurationOrDefault("DND5E_TIMEOUT", cfg.DND5E.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.DND5E.Timeout = timeout

	// Validate
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, bmerr.InvalidArgumentf("LOG_FORMAT must be text or json, got %q", cfg.Log.Format)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, bmerr.WrapWithCode(err, bmerr.CodeInvalidArgument, key+" must be a boolean")
	}
	return b, nil
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, bmerr.WrapWithCode(err, bmerr.CodeInvalidArgument, key+" must be a duration")
	}
	return d, nil
}
