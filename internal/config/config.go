// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

// Package config provides layered configuration loading for PriceLens.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration loaded from environment variables
// and config files.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	db, err := database.New(cfg.Database)
//	server := http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)}
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Model    ModelConfig    `koanf:"model"`
	TxLog    TxLogConfig    `koanf:"txlog"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: "development" or "production"
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/pricelens.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
//   - DUCKDB_THREADS: Worker threads, 0 = runtime.NumCPU()
//   - LISTINGS_CSV_PATH: Optional CSV to seed car_listings from at startup
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	ListingsCSVPath        string `koanf:"listings_csv_path"`
}

// ModelConfig holds model server connection settings.
//
// Environment Variables:
//   - MODEL_URL: Base URL of the model server (required)
//   - MODEL_TIMEOUT: Per-request timeout (default: 30s)
type ModelConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// TxLogConfig holds transaction logger settings.
//
// The transaction log is fire-and-forget: entries that cannot be buffered
// or written are dropped, never retried.
//
// Environment Variables:
//   - TXLOG_ENABLED: Enable the transaction log (default: true)
//   - TXLOG_BUFFER_SIZE: In-memory buffer capacity (default: 1000)
//   - TXLOG_WRITE_TIMEOUT: Per-write timeout (default: 5s)
type TxLogConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BufferSize   int           `koanf:"buffer_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// CacheConfig holds cache settings for the options endpoint.
//
// Environment Variables:
//   - CACHE_OPTIONS_TTL: TTL for cached dropdown options (default: 5m)
type CacheConfig struct {
	OptionsTTL time.Duration `koanf:"options_ttl"`
}

// SecurityConfig holds CORS and rate limiting settings.
//
// Environment Variables:
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS: Requests per window (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Model.URL == "" {
		return fmt.Errorf("model URL is required (set MODEL_URL)")
	}
	if u, err := url.Parse(c.Model.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("model URL %q is not a valid absolute URL", c.Model.URL)
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model timeout must be positive, got %s", c.Model.Timeout)
	}

	if c.TxLog.Enabled && c.TxLog.BufferSize < 1 {
		return fmt.Errorf("txlog buffer size must be at least 1, got %d", c.TxLog.BufferSize)
	}

	if c.Cache.OptionsTTL < 0 {
		return fmt.Errorf("cache options TTL must not be negative, got %s", c.Cache.OptionsTTL)
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("rate limit requests must be at least 1, got %d", c.Security.RateLimitReqs)
	}

	return nil
}
