package di

import (
	"github.com/samber/do/v2"

	"github.com/skygraph/statsbridge/internal/health"
	"github.com/skygraph/statsbridge/internal/linkindex"
)

// MonitorService wraps the upstream circuit monitor.
type MonitorService struct {
	Monitor *health.Monitor
}

// NewMonitor creates the circuit monitor fed by link client outcomes.
func NewMonitor(i do.Injector) (*MonitorService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)

	monitor := health.NewMonitor("link-index", cfgSvc.Config.Health.Circuit, logSvc.Logger)
	return &MonitorService{Monitor: monitor}, nil
}

// LinkClientService wraps the link index client.
type LinkClientService struct {
	Client linkindex.Client
}

// NewLinkClient creates the HTTP link index client from configuration.
func NewLinkClient(i do.Injector) (*LinkClientService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	monSvc := do.MustInvoke[*MonitorService](i)

	upstream := cfgSvc.Config.Upstream
	client := linkindex.NewHTTPClient(upstream.BaseURL, *logSvc.Logger,
		linkindex.WithTimeout(upstream.GetTimeout()),
		linkindex.WithRateLimit(upstream.GetMaxRPSOption()),
		linkindex.WithObserver(monSvc.Monitor),
	)

	return &LinkClientService{Client: client}, nil
}
