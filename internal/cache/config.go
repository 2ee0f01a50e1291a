package cache

import (
	"errors"
	"fmt"
	"time"
)

// Mode represents the cache operating mode.
type Mode string

const (
	// ModeRedis uses a networked Redis store addressed by a connection URL.
	// The default for production deployments where invalidation must be
	// visible across bridge instances.
	ModeRedis Mode = "redis"

	// ModeHA uses a distributed Olric cache for high-availability clusters.
	ModeHA Mode = "ha"

	// ModeSingle uses a local Ristretto cache.
	// Best for single-instance deployments; invalidation is process-local.
	ModeSingle Mode = "single"

	// ModeDisabled uses the noop cache. Every stat lookup goes upstream.
	ModeDisabled Mode = "disabled"
)

// Config defines cache configuration.
// Use Validate() before constructing a cache.
type Config struct {
	Mode      Mode            `yaml:"mode" toml:"mode"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Olric     OlricConfig     `yaml:"olric" toml:"olric"`
	Ristretto RistrettoConfig `yaml:"ristretto" toml:"ristretto"`
}

// RedisConfig configures the Redis store backend.
type RedisConfig struct {
	// URL is the connection string, e.g. redis://localhost:6379/0.
	URL string `yaml:"url" toml:"url"`

	// DialTimeoutMS bounds the initial connection attempt.
	// Zero means the client default.
	DialTimeoutMS int `yaml:"dial_timeout_ms" toml:"dial_timeout_ms"`
}

// GetDialTimeout returns the dial timeout as a duration, or zero for the
// client default.
func (c *RedisConfig) GetDialTimeout() time.Duration {
	if c.DialTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// OlricConfig configures the Olric distributed cache.
type OlricConfig struct {
	DMapName     string        `yaml:"dmap_name" toml:"dmap_name"`
	BindAddr     string        `yaml:"bind_addr" toml:"bind_addr"`
	Addresses    []string      `yaml:"addresses" toml:"addresses"`
	Peers        []string      `yaml:"peers" toml:"peers"`
	LeaveTimeout time.Duration `yaml:"leave_timeout" toml:"leave_timeout"`
	Embedded     bool          `yaml:"embedded" toml:"embedded"`
}

// RistrettoConfig configures the Ristretto local cache.
type RistrettoConfig struct {
	// NumCounters is the number of 4-bit access counters.
	// Recommended: 10x the expected max number of cached stat entries.
	NumCounters int64 `yaml:"num_counters" toml:"num_counters"`

	// MaxCost is the maximum memory the cache can hold, in bytes of
	// serialized stat values.
	MaxCost int64 `yaml:"max_cost" toml:"max_cost"`

	// BufferItems is the number of keys per Get buffer. Default: 64.
	BufferItems int64 `yaml:"buffer_items" toml:"buffer_items"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeRedis:
		if c.Redis.URL == "" {
			return errors.New("cache: redis.url is required")
		}
	case ModeHA:
		if !c.Olric.Embedded && len(c.Olric.Addresses) == 0 {
			return errors.New("cache: olric.addresses required when not embedded")
		}
		if c.Olric.Embedded && c.Olric.BindAddr == "" {
			return errors.New("cache: olric.bind_addr required when embedded")
		}
	case ModeSingle:
		if c.Ristretto.NumCounters <= 0 {
			return errors.New("cache: ristretto.num_counters must be positive")
		}
		if c.Ristretto.MaxCost <= 0 {
			return errors.New("cache: ristretto.max_cost must be positive")
		}
	case ModeDisabled:
		// Nothing to validate.
	case "":
		return errors.New("cache: mode is required")
	default:
		return fmt.Errorf("cache: unknown mode %q", c.Mode)
	}
	return nil
}

// Enabled reports whether the configured mode stores anything at all.
// The enricher skips hit/miss accounting entirely when this is false.
func (c *Config) Enabled() bool {
	return c.Mode != ModeDisabled && c.Mode != ""
}

// DefaultRistrettoConfig returns a RistrettoConfig sized for roughly 100K
// cached stat entries in 64 MB.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1_000_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	}
}

// DefaultOlricConfig returns an OlricConfig with the statsbridge DMap name.
func DefaultOlricConfig() OlricConfig {
	return OlricConfig{
		DMapName: "statsbridge",
	}
}
