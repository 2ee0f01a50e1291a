package di

import (
	"github.com/samber/do/v2"

	"github.com/skygraph/statsbridge/internal/server"
)

// ServerService wraps the HTTP health surface server.
type ServerService struct {
	Server *server.Server
}

// NewHTTPServer creates the health surface server with routes wired.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	repSvc := do.MustInvoke[*ReporterService](i)

	handler := server.SetupRoutes(repSvc.Reporter)
	srv := server.NewServer(
		cfgSvc.Config.Server.GetListen(),
		handler,
		cfgSvc.Config.Server.EnableHTTP2,
	)

	return &ServerService{Server: srv}, nil
}
