package linkindex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
	"github.com/tidwall/sjson"
)

const (
	testPostURI = "at://did:plc:ab12cd34/app.bsky.feed.post/3k2a"
	testDID     = "did:plc:ab12cd34"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append(opts, WithHTTPClient(server.Client()))
	return NewHTTPClient(server.URL, zerolog.Nop(), opts...)
}

func countHandler(t *testing.T, wantCollection, wantPath string, total int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/links/count" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("collection"); got != wantCollection {
			t.Errorf("collection = %q, want %q", got, wantCollection)
		}
		if got := r.URL.Query().Get("path"); got != wantPath {
			t.Errorf("path = %q, want %q", got, wantPath)
		}
		if got := r.URL.Query().Get("target"); got != testPostURI {
			t.Errorf("target = %q, want %q", got, testPostURI)
		}
		body, _ := sjson.Set("{}", "total", total)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestPostCountQueries(t *testing.T) {
	tests := []struct {
		name       string
		call       func(Client, context.Context) (int64, error)
		collection string
		path       string
		total      int64
	}{
		{
			name:       "likes",
			call:       func(c Client, ctx context.Context) (int64, error) { return c.PostLikes(ctx, testPostURI) },
			collection: CollectionLike,
			path:       PathSubjectURI,
			total:      42,
		},
		{
			name:       "reposts",
			call:       func(c Client, ctx context.Context) (int64, error) { return c.PostReposts(ctx, testPostURI) },
			collection: CollectionRepost,
			path:       PathSubjectURI,
			total:      7,
		},
		{
			name:       "replies",
			call:       func(c Client, ctx context.Context) (int64, error) { return c.PostReplies(ctx, testPostURI) },
			collection: CollectionPost,
			path:       PathReplyParent,
			total:      3,
		},
		{
			name:       "quotes",
			call:       func(c Client, ctx context.Context) (int64, error) { return c.PostQuotes(ctx, testPostURI) },
			collection: CollectionPost,
			path:       PathQuoteEmbed,
			total:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, countHandler(t, tt.collection, tt.path, tt.total))
			got, err := tt.call(client, context.Background())
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if got != tt.total {
				t.Errorf("count = %d, want %d", got, tt.total)
			}
		})
	}
}

func TestCountNonSuccessStatusIsError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.PostLikes(context.Background(), testPostURI)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("PostLikes returned %v, want ErrUnexpectedStatus", err)
	}
}

func TestCountMissingTotalIsError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
	}))

	if _, err := client.PostLikes(context.Background(), testPostURI); err == nil {
		t.Fatal("PostLikes with malformed body succeeded, want error")
	}
}

func TestAllLinksCount(t *testing.T) {
	// Build the nested breakdown the way the index renders it.
	body := "{}"
	body, _ = sjson.Set(body, `links.app\.bsky\.graph\.follow.\.subject.records`, 120)
	body, _ = sjson.Set(body, `links.app\.bsky\.graph\.follow.\.subject.distinct_dids`, 118)
	body, _ = sjson.Set(body, `links.app\.bsky\.graph\.block.\.subject.distinct_dids`, 4)
	body, _ = sjson.Set(body, `links.app\.bsky\.graph\.listitem.\.subject.records`, 9)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/links/all" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("target"); got != testDID {
			t.Errorf("target = %q, want %q", got, testDID)
		}
		_, _ = w.Write([]byte(body))
	}))

	counts, err := client.AllLinksCount(context.Background(), testDID)
	if err != nil {
		t.Fatalf("AllLinksCount failed: %v", err)
	}

	if got := counts.Get(CollectionFollow, PathSubject).DistinctDIDs; got != 118 {
		t.Errorf("follow distinct_dids = %d, want 118", got)
	}
	if got := counts.Get(CollectionBlock, PathSubject).DistinctDIDs; got != 4 {
		t.Errorf("block distinct_dids = %d, want 4", got)
	}
	if got := counts.Get(CollectionListitem, PathSubject).Records; got != 9 {
		t.Errorf("listitem records = %d, want 9", got)
	}
	// Absent cells read as zero, never an error.
	if got := counts.Get(CollectionPost, PathFacetDID).Records; got != 0 {
		t.Errorf("absent cell records = %d, want 0", got)
	}
}

func TestHealthCheck(t *testing.T) {
	up := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	if !up.HealthCheck(context.Background()) {
		t.Error("HealthCheck = false for healthy index")
	}

	down := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	if down.HealthCheck(context.Background()) {
		t.Error("HealthCheck = true for failing index")
	}
}

func TestHealthCheckUnreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", zerolog.Nop(),
		WithTimeout(100*time.Millisecond))
	if client.HealthCheck(context.Background()) {
		t.Error("HealthCheck = true for unreachable index")
	}
}

type recordingObserver struct {
	successes atomic.Int64
	failures  atomic.Int64
}

func (o *recordingObserver) ReportSuccess()       { o.successes.Add(1) }
func (o *recordingObserver) ReportFailure(error)  { o.failures.Add(1) }

func TestObserverSeesOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	var status atomic.Int64
	status.Store(http.StatusOK)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte(`{"total":1}`))
		}
	}), WithObserver(obs))

	if _, err := client.PostLikes(context.Background(), testPostURI); err != nil {
		t.Fatalf("PostLikes failed: %v", err)
	}
	status.Store(http.StatusServiceUnavailable)
	if _, err := client.PostLikes(context.Background(), testPostURI); err == nil {
		t.Fatal("PostLikes against 503 succeeded")
	}

	if got := obs.successes.Load(); got != 1 {
		t.Errorf("observer successes = %d, want 1", got)
	}
	if got := obs.failures.Load(); got != 1 {
		t.Errorf("observer failures = %d, want 1", got)
	}
}

func TestRateLimitOptionDisabledByDefault(t *testing.T) {
	client := NewHTTPClient("http://localhost", zerolog.Nop(),
		WithRateLimit(mo.None[float64]()))
	if client.limiter != nil {
		t.Error("limiter configured despite None")
	}

	limited := NewHTTPClient("http://localhost", zerolog.Nop(),
		WithRateLimit(mo.Some(25.0)))
	if limited.limiter == nil {
		t.Error("limiter not configured for Some(25)")
	}
}
