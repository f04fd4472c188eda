package server

import (
	"net/http"

	"github.com/detkit/detconf/internal/catalog"
	"github.com/detkit/detconf/internal/ratelimit"
	"github.com/detkit/detconf/internal/settings"
	"github.com/detkit/detconf/internal/store"
)

// SetupRoutes builds the resolver API handler.
// Routes:
//   - GET  /health - liveness (no auth)
//   - GET  /v1/experiments - list experiments
//   - GET  /v1/experiments/{name} - effective config (?set= overrides, ?format=yaml)
//   - POST /v1/experiments/{name}/validate - validation report
func SetupRoutes(cfg settings.ServerSettings, st *store.Store, datasets *catalog.DatasetCatalog) http.Handler {
	mux := http.NewServeMux()
	handlers := NewHandlers(st, datasets)

	// Middleware order: request ID first so auth and rate-limit logs
	// carry it, auth before rate limiting so limits track real clients.
	middlewares := []Middleware{
		RequestIDMiddleware(),
		LoggingMiddleware(),
	}
	if cfg.APIKey != "" {
		middlewares = append(middlewares, AuthMiddleware(cfg.APIKey))
	}
	if cfg.RequestsPerMinute > 0 {
		middlewares = append(middlewares, RateLimitMiddleware(ratelimit.NewClientLimiter(cfg.RequestsPerMinute)))
	}

	mux.Handle("GET /v1/experiments", Chain(http.HandlerFunc(handlers.ListExperiments), middlewares...))
	mux.Handle("GET /v1/experiments/{name}", Chain(http.HandlerFunc(handlers.GetExperiment), middlewares...))
	mux.Handle("POST /v1/experiments/{name}/validate", Chain(http.HandlerFunc(handlers.ValidateExperiment), middlewares...))

	// Health check endpoint (no auth)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // health write error is non-critical
	})

	return mux
}
