package di

import (
	"github.com/samber/do/v2"

	"github.com/skygraph/statsbridge/internal/cache"
	"github.com/skygraph/statsbridge/internal/health"
	"github.com/skygraph/statsbridge/internal/version"
)

// ReporterService wraps the health reporter.
type ReporterService struct {
	Reporter *health.Reporter
}

// NewReporter creates the health reporter over the link client, enricher
// counters, and (when the store supports probing) the cache store.
func NewReporter(i do.Injector) (*ReporterService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	linkSvc := do.MustInvoke[*LinkClientService](i)
	enrSvc := do.MustInvoke[*EnricherService](i)
	monSvc := do.MustInvoke[*MonitorService](i)
	cacheSvc := do.MustInvoke[*CacheService](i)

	opts := []health.ReporterOption{
		health.WithMonitor(monSvc.Monitor),
	}
	if pinger, ok := cacheSvc.Cache.(cache.Pinger); ok {
		opts = append(opts, health.WithPinger(pinger))
	}

	reporter := health.NewReporter(
		linkSvc.Client,
		enrSvc.Enricher,
		cfgSvc.Config.Health,
		version.Version,
		*logSvc.Logger,
		opts...,
	)

	return &ReporterService{Reporter: reporter}, nil
}
