package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/skygraph/statsbridge/internal/cache"
	"github.com/skygraph/statsbridge/internal/enricher"
)

// Status is the aggregate health verdict.
type Status string

// Aggregate status values.
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HTTPStatus maps a status to its response code: only healthy serves 200,
// so load balancers drain degraded instances too.
func (s Status) HTTPStatus() int {
	if s == StatusHealthy {
		return 200
	}
	return 503
}

// Prober checks upstream reachability. The link index client satisfies it.
type Prober interface {
	HealthCheck(ctx context.Context) bool
	BaseURL() string
}

// StatsSource exposes cache counters. The enricher satisfies it.
type StatsSource interface {
	Stats() enricher.CacheStats
}

// UpstreamStatus describes the link index as seen from this process.
type UpstreamStatus struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Circuit   string `json:"circuit"`
}

// Store probe results, informational only.
const (
	StoreProbeOK     = "ok"
	StoreProbeFailed = "failed"
)

// Snapshot is one point-in-time health report. StoreProbe is empty when the
// cache store was not probed (caching disabled or the store has no Pinger).
type Snapshot struct {
	Status        Status              `json:"status"`
	Upstream      UpstreamStatus      `json:"upstream"`
	Cache         enricher.CacheStats `json:"cache"`
	StoreProbe    string              `json:"store_probe,omitempty"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Uptime        string              `json:"uptime"`
	Version       string              `json:"version"`
	Timestamp     time.Time           `json:"timestamp"`
}

// StatsReport is the lightweight counters document served by /stats.
// It skips the upstream probe so it stays cheap to poll.
type StatsReport struct {
	Cache         enricher.CacheStats `json:"cache"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Uptime        string              `json:"uptime"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Reporter aggregates upstream reachability, circuit state, and cache
// counters into health snapshots.
type Reporter struct {
	prober       Prober
	stats        StatsSource
	pinger       cache.Pinger
	monitor      *Monitor
	log          zerolog.Logger
	version      string
	started      time.Time
	probeTimeout time.Duration
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithPinger wires a cache store probe. Stores that cannot be probed leave
// the cache out of the health verdict.
func WithPinger(p cache.Pinger) ReporterOption {
	return func(r *Reporter) {
		r.pinger = p
	}
}

// WithMonitor wires the upstream circuit monitor into snapshots.
func WithMonitor(m *Monitor) ReporterOption {
	return func(r *Reporter) {
		r.monitor = m
	}
}

// NewReporter creates a Reporter over the given prober and stats source.
func NewReporter(prober Prober, stats StatsSource, cfg Config, version string, log zerolog.Logger, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		prober:       prober,
		stats:        stats,
		log:          log.With().Str("component", "health").Logger(),
		version:      version,
		started:      time.Now(),
		probeTimeout: cfg.GetProbeTimeout(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check builds a full health snapshot.
//
// Verdict: healthy when the upstream probe answers, degraded when it does
// not. Unhealthy is reserved for an internal failure while composing the
// check itself: a panic anywhere in the probes yields an unhealthy snapshot
// rather than taking the health endpoint down with a 500. The cache store
// probe is informational only — the store is fail-open, so its trouble
// never changes the verdict.
func (r *Reporter) Check(ctx context.Context) (snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("health check panicked")
			up := time.Since(r.started)
			snap = Snapshot{
				Status:        StatusUnhealthy,
				Version:       r.version,
				UptimeSeconds: int64(up.Seconds()),
				Uptime:        up.Round(time.Second).String(),
				Timestamp:     time.Now().UTC(),
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	reachable := r.prober.HealthCheck(ctx)
	cacheStats := r.stats.Stats()

	status := StatusHealthy
	if !reachable {
		status = StatusDegraded
	}

	storeProbe := ""
	if cacheStats.Enabled && r.pinger != nil {
		storeProbe = StoreProbeOK
		if err := r.pinger.Ping(ctx); err != nil {
			r.log.Warn().Err(err).Msg("cache store probe failed")
			storeProbe = StoreProbeFailed
		}
	}

	circuit := StateClosed.String()
	if r.monitor != nil {
		circuit = r.monitor.State().String()
	}

	up := time.Since(r.started)
	return Snapshot{
		Status: status,
		Upstream: UpstreamStatus{
			URL:       r.prober.BaseURL(),
			Reachable: reachable,
			Circuit:   circuit,
		},
		Cache:         cacheStats,
		StoreProbe:    storeProbe,
		UptimeSeconds: int64(up.Seconds()),
		Uptime:        up.Round(time.Second).String(),
		Version:       r.version,
		Timestamp:     time.Now().UTC(),
	}
}

// Snapshot returns cache counters plus uptime without probing upstream.
func (r *Reporter) Snapshot() StatsReport {
	up := time.Since(r.started)
	return StatsReport{
		Cache:         r.stats.Stats(),
		UptimeSeconds: int64(up.Seconds()),
		Uptime:        up.Round(time.Second).String(),
		Timestamp:     time.Now().UTC(),
	}
}

// Ready reports whether the service can do useful work: the upstream index
// must answer its liveness probe. Cache trouble never blocks readiness.
func (r *Reporter) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	return r.prober.HealthCheck(ctx)
}

// Live always reports true while the process can serve the request.
func (r *Reporter) Live() bool {
	return true
}
