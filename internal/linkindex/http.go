package linkindex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds each upstream request at the transport level.
	// The enricher layers no additional deadline on top of this.
	DefaultTimeout = 5 * time.Second

	// maxResponseBytes caps how much of an index response is read. Count
	// payloads are tiny; anything bigger is a misbehaving upstream.
	maxResponseBytes = 1 << 20
)

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	http     *http.Client
	limiter  *rate.Limiter
	observer Observer
	log      zerolog.Logger
	baseURL  string
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second to protect the slower
// index service. None disables limiting.
func WithRateLimit(rps mo.Option[float64]) Option {
	return func(c *HTTPClient) {
		if v, ok := rps.Get(); ok && v > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(v), int(v)+1)
		}
	}
}

// WithObserver wires a reachability observer notified of every request
// outcome.
func WithObserver(o Observer) Option {
	return func(c *HTTPClient) {
		c.observer = o
	}
}

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a link index client for the given base URL.
func NewHTTPClient(baseURL string, log zerolog.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     log.With().Str("component", "linkindex").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the index base URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// PostLikes returns the like count for one content URI.
func (c *HTTPClient) PostLikes(ctx context.Context, uri string) (int64, error) {
	return c.count(ctx, uri, CollectionLike, PathSubjectURI)
}

// PostReposts returns the repost count for one content URI.
func (c *HTTPClient) PostReposts(ctx context.Context, uri string) (int64, error) {
	return c.count(ctx, uri, CollectionRepost, PathSubjectURI)
}

// PostReplies returns the direct reply count for one content URI.
func (c *HTTPClient) PostReplies(ctx context.Context, uri string) (int64, error) {
	return c.count(ctx, uri, CollectionPost, PathReplyParent)
}

// PostQuotes returns the quote-post count for one content URI.
func (c *HTTPClient) PostQuotes(ctx context.Context, uri string) (int64, error) {
	return c.count(ctx, uri, CollectionPost, PathQuoteEmbed)
}

// count issues GET /links/count and extracts the total.
func (c *HTTPClient) count(ctx context.Context, target, collection, path string) (int64, error) {
	q := url.Values{}
	q.Set("target", target)
	q.Set("collection", collection)
	q.Set("path", path)

	body, err := c.get(ctx, "/links/count?"+q.Encode())
	if err != nil {
		c.log.Debug().
			Str("target", target).
			Str("collection", collection).
			Err(err).
			Msg("count query failed")
		return 0, err
	}

	total := gjson.GetBytes(body, "total")
	if !total.Exists() {
		return 0, fmt.Errorf("linkindex: count response missing total for %s", collection)
	}
	return total.Int(), nil
}

// AllLinksCount issues GET /links/all and decodes the nested breakdown.
func (c *HTTPClient) AllLinksCount(ctx context.Context, did string) (LinkCounts, error) {
	q := url.Values{}
	q.Set("target", did)

	body, err := c.get(ctx, "/links/all?"+q.Encode())
	if err != nil {
		c.log.Debug().Str("target", did).Err(err).Msg("all-links query failed")
		return nil, err
	}

	counts := make(LinkCounts)
	gjson.GetBytes(body, "links").ForEach(func(collection, paths gjson.Result) bool {
		cell := make(map[string]CountPair)
		paths.ForEach(func(path, pair gjson.Result) bool {
			cell[path.String()] = CountPair{
				Records:      pair.Get("records").Int(),
				DistinctDIDs: pair.Get("distinct_dids").Int(),
			}
			return true
		})
		counts[collection.String()] = cell
		return true
	})
	return counts, nil
}

// HealthCheck probes the index root. Any 2xx/3xx response counts as alive.
func (c *HTTPClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("health probe failed")
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	alive := resp.StatusCode >= 200 && resp.StatusCode < 400
	c.log.Debug().Int("status", resp.StatusCode).Bool("alive", alive).Msg("health probe")
	return alive
}

// get performs one rate-limited request and returns the response body.
// Outcomes are reported to the observer; a 4xx/5xx is an upstream error,
// not a zero count.
func (c *HTTPClient) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		c.observe(err)
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(err)
		return nil, err
	}

	c.observe(nil)
	return body, nil
}

func (c *HTTPClient) observe(err error) {
	if c.observer == nil {
		return
	}
	if err != nil {
		c.observer.ReportFailure(err)
		return
	}
	c.observer.ReportSuccess()
}
