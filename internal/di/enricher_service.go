package di

import (
	"github.com/samber/do/v2"

	"github.com/skygraph/statsbridge/internal/enricher"
)

// EnricherService wraps the stats enricher.
type EnricherService struct {
	Enricher *enricher.Enricher
}

// NewEnricher creates the enricher over the cache store and link client.
func NewEnricher(i do.Injector) (*EnricherService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	cacheSvc := do.MustInvoke[*CacheService](i)
	linkSvc := do.MustInvoke[*LinkClientService](i)

	cfg := cfgSvc.Config
	e := enricher.New(
		cacheSvc.Cache,
		linkSvc.Client,
		cfg.Enricher.GetTTL(),
		cfg.Cache.Enabled(),
		*logSvc.Logger,
	)
	if window, ok := cfg.Enricher.GetBatchWindowOption().Get(); ok {
		e.SetBatchWindow(window)
	}

	return &EnricherService{Enricher: e}, nil
}

// Shutdown implements do.Shutdowner. Closing the enricher releases the
// cache store; lookups afterwards go straight upstream.
func (e *EnricherService) Shutdown() error {
	if e.Enricher != nil {
		return e.Enricher.Close()
	}
	return nil
}
