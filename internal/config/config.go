// Package config loads runtime settings from the environment.
//
// A .env file in the working directory, when present, is loaded first.
// Variables already set in the real environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DBPath        string
	LogLevel      slog.Level
	LogFormat     string // "text" or "json"
	SessionMaxAge time.Duration
	CookieSecure  bool
	// CORSOrigins lists browser origins allowed to call the API with
	// credentials. Empty disables CORS handling.
	CORSOrigins []string
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		Port:          8080,
		DBPath:        "data/dailydiet.db",
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
		SessionMaxAge: 7 * 24 * time.Hour,
		CookieSecure:  false,
	}
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function, so tests need not touch
// the process environment.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v, ok := lookup("DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		format := strings.ToLower(v)
		if format != "text" && format != "json" {
			return Config{}, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", v)
		}
		cfg.LogFormat = format
	}

	if v, ok := lookup("SESSION_MAX_AGE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid SESSION_MAX_AGE %q", v)
		}
		cfg.SessionMaxAge = d
	}

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid COOKIE_SECURE %q", v)
		}
		cfg.CookieSecure = b
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

// NewLogger builds the process logger described by cfg.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
