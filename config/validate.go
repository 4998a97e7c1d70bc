package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures required fields are present. A failure here is fatal at
// startup; nothing else in the pipeline is allowed to kill the process.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	u, err := url.Parse(cfg.Feed.URL)
	if err != nil {
		return fmt.Errorf("feed.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("feed.url scheme must be ws or wss, got %q", u.Scheme)
	}
	if cfg.Feed.Channel == "" {
		return errors.New("feed.channel is required")
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required (or MA_DATABASE_DSN)")
	}
	if cfg.XIVAPI.BaseURL == "" {
		return errors.New("xivapi.baseURL is required")
	}
	if _, err := url.Parse(cfg.XIVAPI.BaseURL); err != nil {
		return fmt.Errorf("xivapi.baseURL is not a valid URL: %w", err)
	}
	if cfg.Feed.BackoffBaseMs < 0 || cfg.Feed.BackoffMaxMs < 0 {
		return errors.New("feed backoff values must be >= 0")
	}
	if cfg.Pipeline.MaxInFlight <= 0 {
		return errors.New("pipeline.maxInFlight must be > 0")
	}
	if cfg.Pipeline.DispatchTimeoutSec <= 0 {
		return errors.New("pipeline.dispatchTimeoutSec must be > 0")
	}
	if cfg.XIVAPI.CacheSize <= 0 || cfg.XIVAPI.CacheTTLSec <= 0 {
		return errors.New("xivapi cache size/ttl must be > 0")
	}
	return nil
}
