package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisCache implements Cache against a networked Redis store.
// Expiry is delegated to Redis per-key TTLs, so entries stay consistent
// across multiple bridge instances sharing one store.
type redisCache struct {
	rdb    *redis.Client
	log    zerolog.Logger
	closed atomic.Bool
}

var (
	_ Cache  = (*redisCache)(nil)
	_ Pinger = (*redisCache)(nil)
)

// newRedisCache connects to the store described by the connection URL.
// An unreachable store is not a construction error: the bridge must come up
// and fail open per operation, tolerating store outages at any point in its
// lifetime.
func newRedisCache(ctx context.Context, cfg RedisConfig) (*redisCache, error) {
	log := logger().With().Str("backend", "redis").Logger()

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("redis: invalid connection url")
		return nil, err
	}
	if d := cfg.GetDialTimeout(); d > 0 {
		opt.DialTimeout = d
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opt.Addr).
			Msg("redis: store unreachable at startup, operations will fail open")
	} else {
		log.Info().Str("addr", opt.Addr).Msg("redis cache connected")
	}

	return &redisCache{
		rdb: rdb,
		log: log,
	}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrClosed
	}

	value, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.Debug().Str("key", key).Bool("hit", false).Msg("cache get")
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.Debug().Str("key", key).Err(err).Msg("cache get error")
		return nil, err
	}

	r.log.Debug().Str("key", key).Bool("hit", true).Int("size", len(value)).Msg("cache get")
	return value, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte) error {
	return r.SetWithTTL(ctx, key, value, 0)
}

func (r *redisCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Err(err).Msg("cache set error")
		return err
	}

	r.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Msg("cache set")
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() {
		return ErrClosed
	}

	// DEL of a missing key is a no-op in Redis, which keeps Delete idempotent.
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.log.Debug().Str("key", key).Err(err).Msg("cache delete error")
		return err
	}

	r.log.Debug().Str("key", key).Msg("cache delete")
	return nil
}

func (r *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if r.closed.Load() {
		return false, ErrClosed
	}

	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the store connection. Idempotent.
func (r *redisCache) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	err := r.rdb.Close()
	if err != nil {
		r.log.Error().Err(err).Msg("redis: close error")
		return err
	}

	r.log.Info().Msg("redis cache closed")
	return nil
}

// Ping validates connectivity to the store.
func (r *redisCache) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.rdb.Ping(ctx).Err()
}
