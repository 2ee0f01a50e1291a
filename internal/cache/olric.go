package cache

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/olric-data/olric"
	olricconfig "github.com/olric-data/olric/config"
	"github.com/rs/zerolog"
)

// olricCache implements Cache using Olric as a distributed backend.
// Two modes:
//   - Client mode: connects to an existing Olric cluster (production)
//   - Embedded mode: runs a local node (single-node HA or tests)
type olricCache struct {
	db     *olric.Olric // embedded node, nil in client mode
	client olric.Client
	dmap   olric.DMap
	log    zerolog.Logger
	closed atomic.Bool
}

var (
	_ Cache  = (*olricCache)(nil)
	_ Pinger = (*olricCache)(nil)
)

// parseBindAddr splits an address that may be host:port or bare host.
func parseBindAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

func newOlricCache(ctx context.Context, cfg *OlricConfig) (*olricCache, error) {
	olog := logger().With().Str("backend", "olric").Logger()

	dmapName := cfg.DMapName
	if dmapName == "" {
		dmapName = DefaultOlricConfig().DMapName
	}

	if cfg.Embedded {
		olog.Debug().Str("mode", "embedded").Msg("olric: starting embedded node")
		return newEmbeddedOlricCache(ctx, cfg, dmapName, olog)
	}
	olog.Debug().Str("mode", "client").Strs("addresses", cfg.Addresses).Msg("olric: connecting to cluster")
	return newClientOlricCache(ctx, cfg, dmapName, olog)
}

func newEmbeddedOlricCache(
	ctx context.Context, cfg *OlricConfig, dmapName string, olog zerolog.Logger,
) (*olricCache, error) {
	c := olricconfig.New("local")

	bindAddr, bindPort := parseBindAddr(cfg.BindAddr)
	c.BindAddr = bindAddr
	if bindPort > 0 {
		c.BindPort = bindPort
	}
	if len(cfg.Peers) > 0 {
		c.Peers = cfg.Peers
	}

	// Olric's own logging is far too chatty for a cache backend.
	c.LogOutput = io.Discard
	c.Logger = log.New(io.Discard, "", 0)

	// Must be set before olric.New.
	ready := make(chan struct{})
	c.Started = func() {
		close(ready)
	}

	db, err := olric.New(c)
	if err != nil {
		olog.Error().Err(err).Msg("olric: failed to create embedded instance")
		return nil, err
	}

	startErr := make(chan error, 1)
	go func() {
		if serr := db.Start(); serr != nil {
			startErr <- serr
		}
	}()

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	select {
	case <-ready:
	case err := <-startErr:
		olog.Error().Err(err).Msg("olric: embedded node failed to start")
		return nil, err
	case <-startupCtx.Done():
		// Node is still coming up; the embedded client tolerates this.
		olog.Debug().Msg("olric: embedded node startup timeout, proceeding")
		time.Sleep(100 * time.Millisecond)
	}

	client := db.NewEmbeddedClient()
	dm, err := client.NewDMap(dmapName)
	if err != nil {
		olog.Error().Err(err).Str("dmap", dmapName).Msg("olric: failed to create dmap")
		if shutdownErr := db.Shutdown(context.Background()); shutdownErr != nil {
			olog.Error().Err(shutdownErr).Msg("olric: shutdown after dmap failure")
		}
		return nil, err
	}

	olog.Info().
		Str("bind_addr", bindAddr).
		Str("dmap", dmapName).
		Int("peers", len(cfg.Peers)).
		Msg("olric embedded cache created")

	return &olricCache{db: db, client: client, dmap: dm, log: olog}, nil
}

func newClientOlricCache(
	ctx context.Context, cfg *OlricConfig, dmapName string, olog zerolog.Logger,
) (*olricCache, error) {
	client, err := olric.NewClusterClient(cfg.Addresses)
	if err != nil {
		olog.Error().Err(err).Strs("addresses", cfg.Addresses).Msg("olric: failed to connect to cluster")
		return nil, err
	}

	dm, err := client.NewDMap(dmapName)
	if err != nil {
		olog.Error().Err(err).Str("dmap", dmapName).Msg("olric: failed to create dmap")
		if closeErr := client.Close(ctx); closeErr != nil {
			olog.Error().Err(closeErr).Msg("olric: close after dmap failure")
		}
		return nil, err
	}

	olog.Info().
		Strs("addresses", cfg.Addresses).
		Str("dmap", dmapName).
		Msg("olric cluster cache created")

	return &olricCache{client: client, dmap: dm, log: olog}, nil
}

func (o *olricCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.closed.Load() {
		return nil, ErrClosed
	}

	resp, err := o.dmap.Get(ctx, key)
	if err != nil {
		if errors.Is(err, olric.ErrKeyNotFound) {
			o.log.Debug().Str("key", key).Bool("hit", false).Msg("cache get")
			return nil, ErrNotFound
		}
		o.log.Debug().Str("key", key).Err(err).Msg("cache get error")
		return nil, err
	}

	value, err := resp.Byte()
	if err != nil {
		o.log.Debug().Str("key", key).Err(err).Msg("cache get: failed to decode value")
		return nil, err
	}

	o.log.Debug().Str("key", key).Bool("hit", true).Int("size", len(value)).Msg("cache get")
	return value, nil
}

func (o *olricCache) Set(ctx context.Context, key string, value []byte) error {
	return o.put(ctx, key, value, 0)
}

func (o *olricCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return o.put(ctx, key, value, ttl)
}

func (o *olricCache) put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.closed.Load() {
		return ErrClosed
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var err error
	if ttl > 0 {
		err = o.dmap.Put(ctx, key, valueCopy, olric.EX(ttl))
	} else {
		err = o.dmap.Put(ctx, key, valueCopy)
	}
	if err != nil {
		o.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Err(err).Msg("cache set error")
		return err
	}

	o.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Msg("cache set")
	return nil
}

func (o *olricCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.closed.Load() {
		return ErrClosed
	}

	_, err := o.dmap.Delete(ctx, key)
	if err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
		o.log.Debug().Str("key", key).Err(err).Msg("cache delete error")
		return err
	}

	o.log.Debug().Str("key", key).Msg("cache delete")
	return nil
}

func (o *olricCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if o.closed.Load() {
		return false, ErrClosed
	}

	_, err := o.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (o *olricCache) Close() error {
	if o.closed.Swap(true) {
		return nil
	}

	ctx := context.Background()

	if o.dmap != nil {
		if err := o.dmap.Close(ctx); err != nil {
			o.log.Debug().Err(err).Msg("olric: dmap close error during shutdown")
		}
	}

	if o.db != nil {
		err := o.db.Shutdown(ctx)
		if err != nil {
			o.log.Error().Err(err).Msg("olric: embedded node shutdown error")
		} else {
			o.log.Info().Msg("olric embedded cache closed")
		}
		return err
	}

	if o.client != nil {
		err := o.client.Close(ctx)
		if err != nil {
			o.log.Error().Err(err).Msg("olric: client disconnect error")
		} else {
			o.log.Info().Msg("olric cluster cache closed")
		}
		return err
	}

	return nil
}

// Ping validates cluster connectivity with a throwaway read.
// ErrKeyNotFound means the round trip worked.
func (o *olricCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.closed.Load() {
		return ErrClosed
	}

	_, err := o.dmap.Get(ctx, "__statsbridge_ping__")
	if errors.Is(err, olric.ErrKeyNotFound) {
		return nil
	}
	return err
}
