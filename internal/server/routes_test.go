package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygraph/statsbridge/internal/enricher"
	"github.com/skygraph/statsbridge/internal/health"
)

type stubProber struct {
	reachable bool
}

func (p *stubProber) HealthCheck(context.Context) bool { return p.reachable }
func (p *stubProber) BaseURL() string                  { return "http://index.test" }

type stubStats struct {
	stats enricher.CacheStats
}

func (s *stubStats) Stats() enricher.CacheStats { return s.stats }

func newTestHandler(reachable bool) http.Handler {
	prober := &stubProber{reachable: reachable}
	stats := &stubStats{stats: enricher.CacheStats{
		Enabled:   true,
		Requested: 4,
		CacheHits: 1,
		HitRate:   "25.00%",
	}}
	reporter := health.NewReporter(prober, stats, health.Config{}, "test", zerolog.Nop())
	return SetupRoutes(reporter)
}

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointHealthy(t *testing.T) {
	rec := doRequest(t, newTestHandler(true), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap health.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, health.StatusHealthy, snap.Status)
	assert.True(t, snap.Upstream.Reachable)
	assert.Equal(t, "25.00%", snap.Cache.HitRate)
	assert.Equal(t, "test", snap.Version)
}

func TestHealthEndpointDegradedIs503(t *testing.T) {
	rec := doRequest(t, newTestHandler(false), "/health")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var snap health.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, health.StatusDegraded, snap.Status)
}

func TestReadyEndpoint(t *testing.T) {
	rec := doRequest(t, newTestHandler(true), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())

	rec = doRequest(t, newTestHandler(false), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", rec.Body.String())
}

func TestLiveEndpointAlways200(t *testing.T) {
	// Liveness must hold even when the upstream is down.
	rec := doRequest(t, newTestHandler(false), "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestHandler(true), "/stats")

	require.Equal(t, http.StatusOK, rec.Code)

	var report health.StatsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Cache.Enabled)
	assert.EqualValues(t, 4, report.Cache.Requested)
	assert.Equal(t, "25.00%", report.Cache.HitRate)
	assert.False(t, report.Timestamp.IsZero())
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := doRequest(t, newTestHandler(true), "/nope")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "not_found", resp.Error.Type)
	assert.Contains(t, resp.Error.Message, "/nope")
}

func TestRequestIDHeaderSet(t *testing.T) {
	rec := doRequest(t, newTestHandler(true), "/live")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestHandler(true).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
