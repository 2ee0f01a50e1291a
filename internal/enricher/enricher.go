// Package enricher implements the cache-aside stats bridge between the feed
// hydration path and the link index.
//
// The enricher never propagates an error to its caller: every lookup returns
// a stats value. Upstream failures degrade to zero-valued stats without
// caching the fallback, and cache store failures degrade to direct upstream
// queries. This trades transient stat precision for availability of the
// hydration path.
package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/skygraph/statsbridge/internal/cache"
	"github.com/skygraph/statsbridge/internal/linkindex"
)

// DefaultBatchWindow bounds how many stat lookups a single EnrichPosts call
// has in flight at once, independent of cache hit rate.
const DefaultBatchWindow = 5

// Enricher owns the cache store handle, the fixed TTL, and the hit/miss
// counters. Construct one per process and share it by handle; the counters
// are instance state, never globals.
type Enricher struct {
	store  cache.Cache
	links  linkindex.Client
	log    zerolog.Logger
	ttl    time.Duration
	window int

	enabled bool
	closed  atomic.Bool

	requested   atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// New creates an Enricher over the given store and link client.
// enabled should reflect the cache configuration mode; when false, every
// lookup goes upstream and neither hits nor misses are counted.
func New(store cache.Cache, links linkindex.Client, ttl time.Duration, enabled bool, log zerolog.Logger) *Enricher {
	return &Enricher{
		store:   store,
		links:   links,
		log:     log.With().Str("component", "enricher").Logger(),
		ttl:     ttl,
		window:  DefaultBatchWindow,
		enabled: enabled,
	}
}

// SetBatchWindow overrides the EnrichPosts concurrency window.
// Values below 1 are ignored.
func (e *Enricher) SetBatchWindow(n int) {
	if n >= 1 {
		e.window = n
	}
}

// cacheActive reports whether cache-aside accounting applies. After Close
// the enricher behaves as cache-disabled rather than failing callers.
func (e *Enricher) cacheActive() bool {
	return e.enabled && !e.closed.Load()
}

// PostStats returns engagement stats for one content URI.
// Cache-aside: hit decodes and returns; miss fans out the four count
// queries concurrently and writes the joined result back under the TTL.
// Any upstream failure degrades to zero stats without caching, so the next
// call retries upstream instead of being pinned to a false zero.
func (e *Enricher) PostStats(ctx context.Context, uri string) PostStats {
	var stats PostStats
	if e.lookup(ctx, PostKey(uri), &stats) {
		return stats
	}

	stats, ok := e.fetchPostStats(ctx, uri)
	if ok {
		e.writeBack(ctx, PostKey(uri), stats)
	}
	return stats
}

// ProfileStats returns engagement stats for one actor DID.
// The miss path is a single all-links call; missing cells in the breakdown
// read as zero, not as errors.
func (e *Enricher) ProfileStats(ctx context.Context, did string) ProfileStats {
	var stats ProfileStats
	if e.lookup(ctx, ProfileKey(did), &stats) {
		return stats
	}

	counts, err := e.links.AllLinksCount(ctx, did)
	if err != nil {
		e.log.Warn().Str("did", did).Err(err).Msg("all-links query failed, degrading to zero stats")
		return ProfileStats{}
	}

	stats = ProfileStats{
		Followers: counts.Get(linkindex.CollectionFollow, linkindex.PathSubject).DistinctDIDs,
		Mentions:  counts.Get(linkindex.CollectionPost, linkindex.PathFacetDID).Records,
		Blocks:    counts.Get(linkindex.CollectionBlock, linkindex.PathSubject).DistinctDIDs,
		Lists:     counts.Get(linkindex.CollectionListitem, linkindex.PathSubject).Records,
	}
	e.writeBack(ctx, ProfileKey(did), stats)
	return stats
}

// EnrichPosts resolves stats for a batch of URIs in fixed-size windows.
// Window N+1 does not start until every lookup in window N has settled,
// which caps in-flight upstream requests regardless of cache hit rate.
// The returned map covers every input URI exactly once; order carries no
// meaning.
func (e *Enricher) EnrichPosts(ctx context.Context, uris []string) map[string]PostStats {
	results := make(map[string]PostStats, len(uris))
	var mu sync.Mutex

	for _, window := range lo.Chunk(uris, e.window) {
		var wg sync.WaitGroup
		for _, uri := range window {
			wg.Add(1)
			go func(uri string) {
				defer wg.Done()
				stats := e.PostStats(ctx, uri)
				mu.Lock()
				results[uri] = stats
				mu.Unlock()
			}(uri)
		}
		wg.Wait()
	}
	return results
}

// InvalidateCache removes the cached stats for an identifier.
//
// Both the post and the profile key are deleted for the same argument, even
// though content URIs and actor DIDs are disjoint identifier spaces; one of
// the two deletes is always a no-op. Documented behavior, preserved as-is
// pending product clarification (see DESIGN.md).
func (e *Enricher) InvalidateCache(ctx context.Context, id string) error {
	if !e.cacheActive() {
		return nil
	}

	var errs []error
	for _, key := range []string{PostKey(id), ProfileKey(id)} {
		if err := e.store.Delete(ctx, key); err != nil && !errors.Is(err, cache.ErrClosed) {
			e.log.Warn().Str("key", key).Err(err).Msg("cache invalidation failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the cache counters.
func (e *Enricher) Stats() CacheStats {
	requested := e.requested.Load()
	hits := e.cacheHits.Load()
	return CacheStats{
		Enabled:     e.cacheActive(),
		TTLMS:       e.ttl.Milliseconds(),
		Requested:   requested,
		CacheHits:   hits,
		CacheMisses: e.cacheMisses.Load(),
		HitRate:     formatHitRate(hits, requested),
	}
}

// Close releases the cache store connection. Idempotent; afterwards the
// enricher serves every lookup directly from upstream.
func (e *Enricher) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.log.Info().Msg("enricher closed, cache released")
	return e.store.Close()
}

// lookup runs the cache-aside read path. It returns true on a decoded hit.
// Store-level errors are treated as misses: caching unavailability never
// blocks a stat lookup.
func (e *Enricher) lookup(ctx context.Context, key string, out any) bool {
	if !e.cacheActive() {
		return false
	}

	e.requested.Add(1)

	data, err := e.store.Get(ctx, key)
	if err == nil {
		if uerr := json.Unmarshal(data, out); uerr == nil {
			e.cacheHits.Add(1)
			return true
		}
		e.log.Warn().Str("key", key).Msg("undecodable cache entry, treating as miss")
	} else if !errors.Is(err, cache.ErrNotFound) {
		e.log.Warn().Str("key", key).Err(err).Msg("cache read failed, treating as miss")
	}

	e.cacheMisses.Add(1)
	return false
}

// writeBack stores a computed value under the TTL. Best-effort: failures
// are logged and otherwise ignored.
func (e *Enricher) writeBack(ctx context.Context, key string, value any) {
	if !e.cacheActive() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		e.log.Warn().Str("key", key).Err(err).Msg("failed to encode stats for caching")
		return
	}
	if err := e.store.SetWithTTL(ctx, key, data, e.ttl); err != nil {
		e.log.Warn().Str("key", key).Err(err).Msg("cache write failed")
	}
}

// fetchPostStats issues the four count queries concurrently and joins the
// results. ok is false when any query failed; the zero value is returned
// and must not be cached.
func (e *Enricher) fetchPostStats(ctx context.Context, uri string) (PostStats, bool) {
	var (
		wg     sync.WaitGroup
		counts [4]int64
		errs   [4]error
	)

	queries := [4]func(context.Context, string) (int64, error){
		e.links.PostLikes,
		e.links.PostReposts,
		e.links.PostReplies,
		e.links.PostQuotes,
	}

	for i, query := range queries {
		wg.Add(1)
		go func(i int, query func(context.Context, string) (int64, error)) {
			defer wg.Done()
			counts[i], errs[i] = query(ctx, uri)
		}(i, query)
	}
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		e.log.Warn().Str("uri", uri).Err(err).Msg("count queries failed, degrading to zero stats")
		return PostStats{}, false
	}

	return PostStats{
		Likes:   counts[0],
		Reposts: counts[1],
		Replies: counts[2],
		Quotes:  counts[3],
	}, true
}
