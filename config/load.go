package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"market-alerts-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Feed     FeedConfig     `yaml:"feed"`
	Database DatabaseConfig `yaml:"database"`
	XIVAPI   XIVAPIConfig   `yaml:"xivapi"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      logger.Config  `yaml:"log"`
}

// FeedConfig 订阅源连接参数。
type FeedConfig struct {
	URL              string `yaml:"url"`              // 例如 wss://universalis.app/api/ws
	Channel          string `yaml:"channel"`          // 例如 listings/add{world=74}
	BackoffBaseMs    int    `yaml:"backoffBaseMs"`    // 重连退避基数（毫秒）
	BackoffMaxMs     int    `yaml:"backoffMaxMs"`     // 重连退避上限（毫秒）
	HandshakeTimeout int    `yaml:"handshakeTimeout"` // 握手超时（秒）
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	MaxIdleSec   int    `yaml:"maxIdleSec"`
}

type XIVAPIConfig struct {
	BaseURL        string `yaml:"baseURL"`
	CacheTTLSec    int    `yaml:"cacheTTLSec"`
	CacheSize      int    `yaml:"cacheSize"`
	RequestTimeout int    `yaml:"requestTimeoutSec"`
}

// PipelineConfig 控制事件处理并发度；maxInFlight 为 1 时恢复严格顺序。
type PipelineConfig struct {
	MaxInFlight        int `yaml:"maxInFlight"`
	DispatchTimeoutSec int `yaml:"dispatchTimeoutSec"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 留空则关闭 /metrics
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MA_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MA_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	return cfg, Validate(cfg)
}

func defaults() AppConfig {
	return AppConfig{
		Feed: FeedConfig{
			BackoffBaseMs:    500,
			BackoffMaxMs:     30_000,
			HandshakeTimeout: 10,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 8,
			MaxIdleConns: 4,
			MaxIdleSec:   60,
		},
		XIVAPI: XIVAPIConfig{
			BaseURL:        "https://v2.xivapi.com",
			CacheTTLSec:    60,
			CacheSize:      500,
			RequestTimeout: 10,
		},
		Pipeline: PipelineConfig{
			MaxInFlight:        8,
			DispatchTimeoutSec: 10,
		},
		Metrics: MetricsConfig{Addr: ":9100"},
		Log:     logger.DefaultConfig(),
	}
}

// BackoffBase returns the reconnect backoff base as a duration.
func (f FeedConfig) BackoffBase() time.Duration {
	return time.Duration(f.BackoffBaseMs) * time.Millisecond
}

// BackoffMax returns the reconnect backoff ceiling as a duration.
func (f FeedConfig) BackoffMax() time.Duration {
	return time.Duration(f.BackoffMaxMs) * time.Millisecond
}
