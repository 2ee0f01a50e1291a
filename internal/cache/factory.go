package cache

import (
	"context"
	"fmt"
	"time"
)

// New creates a Cache for the configured mode.
// The context bounds initialization of networked backends (ModeRedis,
// ModeHA); local backends ignore it.
func New(ctx context.Context, cfg *Config) (Cache, error) {
	log := logger().With().Str("component", "cache_factory").Logger()
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		log.Debug().Err(err).Str("mode", string(cfg.Mode)).Msg("cache factory: validation failed")
		return nil, err
	}

	log.Info().Str("mode", string(cfg.Mode)).Msg("cache factory: initializing backend")

	var c Cache
	var err error

	switch cfg.Mode {
	case ModeRedis:
		c, err = newRedisCache(ctx, cfg.Redis)
	case ModeHA:
		c, err = newOlricCache(ctx, &cfg.Olric)
	case ModeSingle:
		c, err = newRistrettoCache(cfg.Ristretto)
	case ModeDisabled:
		c = newNoopCache()
	default:
		return nil, fmt.Errorf("cache: unknown mode %q", cfg.Mode)
	}

	if err != nil {
		log.Error().Err(err).Str("mode", string(cfg.Mode)).Msg("cache factory: backend initialization failed")
		return nil, err
	}

	log.Info().
		Str("mode", string(cfg.Mode)).
		Dur("init_time", time.Since(start)).
		Msg("cache factory: backend initialized")

	return c, nil
}
