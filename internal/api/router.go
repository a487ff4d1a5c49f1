// Package api serves the ledger host over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/fundledger/internal/metrics"
	"github.com/roach88/fundledger/internal/runtime"
)

// NewRouter creates a new HTTP router with all routes configured.
// m may be nil, in which case /metrics is not mounted.
func NewRouter(host *runtime.Host, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{host: host, logger: logger}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transactions", h.submit)
		r.Get("/cells/{address}", h.cell)
		r.Get("/organizations", h.organizations)
		r.Get("/executions", h.executions)
	})

	return r
}

// requestLogger logs one line per request at Debug.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimw.GetReqID(r.Context()),
				"elapsed", time.Since(start),
			)
		})
	}
}
