package server

import (
	"net/http"

	"github.com/skygraph/statsbridge/internal/health"
)

// SetupRoutes creates the HTTP handler for the health surface.
// Routes:
//   - GET /health - full health snapshot; 200 only when healthy
//   - GET /ready  - readiness probe tracking upstream reachability
//   - GET /live   - liveness probe, always 200
//   - GET /stats  - cache counters plus uptime, no upstream probe
//
// Middleware order: request ID first so every log line carries it, then
// request logging.
func SetupRoutes(reporter *health.Reporter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		snap := reporter.Check(r.Context())
		writeJSON(w, snap.Status.HTTPStatus(), snap)
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if !reporter.Ready(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck // probe write error is non-critical
			w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // probe write error is non-critical
		w.Write([]byte("ready"))
	})

	mux.HandleFunc("GET /live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // probe write error is non-critical
		w.Write([]byte("alive"))
	})

	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reporter.Snapshot())
	})

	// Unmatched paths get the JSON error envelope instead of the stdlib
	// plain-text 404.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})

	var handler http.Handler = mux
	handler = LoggingMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
