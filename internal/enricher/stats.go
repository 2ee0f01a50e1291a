package enricher

import "fmt"

// Key namespaces for cached stat entries.
const (
	postKeyPrefix    = "stats:post:"
	profileKeyPrefix = "stats:profile:"
)

// PostKey returns the cache key for a post's engagement stats.
func PostKey(uri string) string {
	return postKeyPrefix + uri
}

// ProfileKey returns the cache key for an actor's engagement stats.
func ProfileKey(did string) string {
	return profileKeyPrefix + did
}

// PostStats holds engagement counts for one content item.
// All fields are non-negative.
type PostStats struct {
	Likes   int64 `json:"likes"`
	Reposts int64 `json:"reposts"`
	Replies int64 `json:"replies"`
	Quotes  int64 `json:"quotes"`
}

// ProfileStats holds engagement counts for one actor.
// All fields are non-negative.
type ProfileStats struct {
	Followers int64 `json:"followers"`
	Mentions  int64 `json:"mentions"`
	Blocks    int64 `json:"blocks"`
	Lists     int64 `json:"lists"`
}

// CacheStats is a point-in-time snapshot of the enricher's cache counters.
// Counters are process-lifetime and monotonically increasing; they reset
// only on restart and are never persisted.
type CacheStats struct {
	Enabled     bool   `json:"enabled"`
	TTLMS       int64  `json:"ttl_ms"`
	Requested   uint64 `json:"requested"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
	HitRate     string `json:"hit_rate"`
}

// formatHitRate renders hits/requested as a percentage with two decimals,
// "0.00%" when nothing has been requested yet.
func formatHitRate(hits, requested uint64) string {
	if requested == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(hits)/float64(requested)*100)
}
