// Package config loads portal configuration from env and an optional .env
// file using Viper.
package config

import (
	"errors"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the portal process needs at startup.
type Config struct {
	// Addr is the address the portal listens on (e.g. :8080).
	Addr string `mapstructure:"PORTAL_ADDR"`
	// BackendBaseURL is the base URL of the analysis backend (e.g. http://127.0.0.1:8000).
	BackendBaseURL string `mapstructure:"BACKEND_BASE_URL"`
	// RedisURL is the session storage DSN; empty selects the in-memory store.
	RedisURL string `mapstructure:"REDIS_URL"`
	// CookieHashKey signs the browser session cookie. 32 or 64 bytes.
	CookieHashKey string `mapstructure:"COOKIE_HASH_KEY"`
	// CookieBlockKey optionally encrypts the session cookie. 16, 24 or 32 bytes.
	CookieBlockKey string `mapstructure:"COOKIE_BLOCK_KEY"`
	// SessionTTL bounds how long an idle browser session survives in storage.
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// BackendTimeout caps every proxied backend call.
	BackendTimeout string `mapstructure:"BACKEND_TIMEOUT"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORTAL_ADDR", ":8080")
	v.SetDefault("BACKEND_BASE_URL", "http://127.0.0.1:8000")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("COOKIE_HASH_KEY", "")
	v.SetDefault("COOKIE_BLOCK_KEY", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BACKEND_TIMEOUT", "30s")
	v.SetDefault("APP_ENV", "development")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("config: PORTAL_ADDR must be set")
	}
	if _, err := url.Parse(cfg.BackendBaseURL); err != nil {
		return nil, errors.New("config: BACKEND_BASE_URL must be a valid URL")
	}
	if cfg.Env == "production" && cfg.CookieHashKey == "" {
		return nil, errors.New("config: COOKIE_HASH_KEY must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// SessionTTLDuration parses SessionTTL. Returns 24h if unset or invalid.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// BackendTimeoutDuration parses BackendTimeout. Returns 30s if unset or invalid.
func (c *Config) BackendTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.BackendTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
