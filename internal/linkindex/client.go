// Package linkindex provides the request layer for the external link index
// service, which computes raw interaction link counts for content and actors.
//
// The client is pure request plumbing: it never caches, never retries beyond
// its transport, and surfaces upstream failures as errors so callers can
// distinguish "the index is down" from "zero likes".
package linkindex

import (
	"context"
	"errors"
)

// Collection and path constants for post engagement counts, matching the
// record shapes the link index aggregates over.
const (
	CollectionLike     = "app.bsky.feed.like"
	CollectionRepost   = "app.bsky.feed.repost"
	CollectionPost     = "app.bsky.feed.post"
	CollectionFollow   = "app.bsky.graph.follow"
	CollectionBlock    = "app.bsky.graph.block"
	CollectionListitem = "app.bsky.graph.listitem"

	PathSubjectURI  = ".subject.uri"
	PathSubject     = ".subject"
	PathReplyParent = ".reply.parent.uri"
	PathQuoteEmbed  = ".embed.record.uri"
	PathFacetDID    = ".facets[].features[].did"
)

// ErrUnexpectedStatus is returned when the index responds with a non-2xx
// status. It is wrapped with the actual status code.
var ErrUnexpectedStatus = errors.New("linkindex: unexpected response status")

// CountPair is one cell of the nested link-count breakdown.
type CountPair struct {
	// Records is the total number of linking records.
	Records int64 `json:"records"`

	// DistinctDIDs is the number of distinct actors owning those records.
	DistinctDIDs int64 `json:"distinct_dids"`
}

// LinkCounts is the nested (collection, predicate path) -> counts breakdown
// returned for one actor. Missing cells mean zero, never an error.
type LinkCounts map[string]map[string]CountPair

// Get returns the pair at (collection, path), zero-valued when absent.
func (lc LinkCounts) Get(collection, path string) CountPair {
	return lc[collection][path]
}

// Client issues count queries against the link index.
//
// Every count operation may fail with an upstream error (timeout, network
// failure, non-success response); callers own the degrade policy.
type Client interface {
	// PostLikes returns the like count for one content URI.
	PostLikes(ctx context.Context, uri string) (int64, error)

	// PostReposts returns the repost count for one content URI.
	PostReposts(ctx context.Context, uri string) (int64, error)

	// PostReplies returns the direct reply count for one content URI.
	PostReplies(ctx context.Context, uri string) (int64, error)

	// PostQuotes returns the quote-post count for one content URI.
	PostQuotes(ctx context.Context, uri string) (int64, error)

	// AllLinksCount returns the full link-count breakdown for one actor
	// in a single round trip.
	AllLinksCount(ctx context.Context, did string) (LinkCounts, error)

	// HealthCheck probes index liveness. It returns false rather than an
	// error on failure so health surfaces stay resilient.
	HealthCheck(ctx context.Context) bool

	// BaseURL returns the probe target address for health reporting.
	BaseURL() string
}

// Observer receives the outcome of every upstream request. Implementations
// must never block; observation is telemetry only and must not gate traffic.
type Observer interface {
	ReportSuccess()
	ReportFailure(err error)
}
