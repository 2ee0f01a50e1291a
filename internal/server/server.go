package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server wraps http.Server with statsbridge timeouts.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a Server for the health surface.
// Timeout rationale:
//   - ReadTimeout: 10s - protect against slow clients
//   - WriteTimeout: 30s - snapshot responses are small, probes included
//   - IdleTimeout: 120s - reasonable keep-alive
//
// If enableHTTP2 is true, HTTP/2 cleartext (h2c) is enabled for non-TLS
// connections so sidecar pollers can multiplex probes.
func NewServer(addr string, handler http.Handler, enableHTTP2 bool) *Server {
	finalHandler := handler
	if enableHTTP2 {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      finalHandler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
