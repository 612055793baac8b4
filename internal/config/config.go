// Package config defines service configuration and its loading.
package config

import (
	"context"
	"time"
)

// Environment variable names.
const (
	EnvPrefix     = "PLAYERSTOCK_"
	EnvConfigFile = "PLAYERSTOCK_CONFIG"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// UpstreamBaseURL is the Sleeper API root.
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds each upstream HTTP request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// UpstreamRatePerSec caps upstream requests per second; 0 disables.
	UpstreamRatePerSec float64 `koanf:"upstream_rate_per_sec"`

	// FanoutConcurrency caps concurrent per-league calls in one run.
	FanoutConcurrency int `koanf:"fanout_concurrency"`

	// LeagueTimeoutMS bounds each per-league task including its wait.
	LeagueTimeoutMS int `koanf:"league_timeout_ms"`

	// Season is the current season and the default for requests.
	Season int `koanf:"season"`

	// MinSeason is the oldest season comparisons accept.
	MinSeason int `koanf:"min_season"`

	// Sport is the upstream sport path segment.
	Sport string `koanf:"sport"`

	// CacheSize caps cached handles; zero or less is unbounded.
	CacheSize int `koanf:"cache_size"`
}

// New creates a Config with defaults. Context is accepted first to follow the
// project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DBPath:             "data/playerstock.db",
		UpstreamBaseURL:    "https://api.sleeper.app/v1",
		UpstreamTimeoutMS:  10_000,
		UpstreamRatePerSec: 10,
		FanoutConcurrency:  8,
		LeagueTimeoutMS:    15_000,
		Season:             2025,
		MinSeason:          2018,
		Sport:              "nfl",
		CacheSize:          0,
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// LeagueTimeout returns LeagueTimeoutMS as a duration.
func (c *Config) LeagueTimeout() time.Duration {
	return time.Duration(c.LeagueTimeoutMS) * time.Millisecond
}
