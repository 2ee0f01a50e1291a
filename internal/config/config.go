// Package config provides configuration loading and parsing for statsbridge.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/skygraph/statsbridge/internal/cache"
	"github.com/skygraph/statsbridge/internal/health"
)

// Configuration errors.
var (
	ErrUpstreamURLRequired = errors.New("config: upstream base_url is required")
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Defaults.
const (
	DefaultListen  = ":8080"
	DefaultTTLMS   = 60000 // cached stats live for one minute
	DefaultTimeout = 5000  // upstream request deadline in milliseconds
)

// Config represents the complete statsbridge configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Upstream UpstreamConfig `yaml:"upstream" toml:"upstream"`
	Enricher EnricherConfig `yaml:"enricher" toml:"enricher"`
	Cache    cache.Config   `yaml:"cache" toml:"cache"`
	Health   health.Config  `yaml:"health" toml:"health"`
}

// Validate checks the configuration for errors. An omitted cache section
// means caching is off, not misconfigured.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return ErrUpstreamURLRequired
	}
	if c.Cache.Mode == "" {
		c.Cache.Mode = cache.ModeDisabled
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ServerConfig defines the health surface listener.
type ServerConfig struct {
	// Listen is the address to bind, host:port. Default: ":8080"
	Listen string `yaml:"listen" toml:"listen"`

	// EnableHTTP2 turns on HTTP/2 cleartext (h2c) for non-TLS listeners.
	EnableHTTP2 bool `yaml:"enable_http2" toml:"enable_http2"`
}

// GetListen returns the listen address with default fallback.
func (s *ServerConfig) GetListen() string {
	if s.Listen == "" {
		return DefaultListen
	}
	return s.Listen
}

// UpstreamConfig points at the link index service.
type UpstreamConfig struct {
	// BaseURL is the index root, e.g. "https://constellation.microcosm.blue".
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// TimeoutMS bounds each index request. Default: 5000 (5 seconds)
	TimeoutMS int `yaml:"timeout_ms" toml:"timeout_ms"`

	// MaxRPS caps outgoing requests per second. Zero means uncapped.
	MaxRPS float64 `yaml:"max_rps" toml:"max_rps"`
}

// GetTimeout returns the upstream request deadline.
func (u *UpstreamConfig) GetTimeout() time.Duration {
	if u.TimeoutMS <= 0 {
		return time.Duration(DefaultTimeout) * time.Millisecond
	}
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// GetMaxRPSOption returns the request rate cap as an Option.
// Returns None when uncapped.
func (u *UpstreamConfig) GetMaxRPSOption() mo.Option[float64] {
	if u.MaxRPS <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(u.MaxRPS)
}

// EnricherConfig tunes the stats enrichment layer.
type EnricherConfig struct {
	// TTLMS is how long cached stats stay fresh, in milliseconds.
	// Default: 60000 (one minute)
	TTLMS int `yaml:"ttl_ms" toml:"ttl_ms"`

	// BatchWindow bounds concurrent lookups per batch enrichment call.
	// Zero keeps the built-in window.
	BatchWindow int `yaml:"batch_window" toml:"batch_window"`
}

// GetTTL returns the cache TTL with default fallback.
func (e *EnricherConfig) GetTTL() time.Duration {
	if e.TTLMS <= 0 {
		return time.Duration(DefaultTTLMS) * time.Millisecond
	}
	return time.Duration(e.TTLMS) * time.Millisecond
}

// GetBatchWindowOption returns the batch window as an Option.
// Returns None when the built-in default should apply.
func (e *EnricherConfig) GetBatchWindowOption() mo.Option[int] {
	if e.BatchWindow <= 0 {
		return mo.None[int]()
	}
	return mo.Some(e.BatchWindow)
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // force colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
