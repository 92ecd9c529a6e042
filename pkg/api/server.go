// Package api serves CPER decoding and the record store over HTTP.
//
// Every route under /api/v1 requires the X-API-Key header. Records are
// posted as raw bytes (application/octet-stream); responses are JSON
// wrapped in APIResponse unless noted otherwise. /metrics is left open
// for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "api")

const (
	metricsUpdateInterval = 30 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Routes builds the HTTP handler for s
func (s *Server) Routes() http.Handler {
	metrics := s.metrics
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Stateless decoding
		r.Post("/decode", metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/check", metrics.InstrumentHandler("POST", "/api/v1/check", s.handleCheck))

		// Record store
		r.Post("/records", metrics.InstrumentHandler("POST", "/api/v1/records", s.handleCreateRecord))
		r.Get("/records", metrics.InstrumentHandler("GET", "/api/v1/records", s.handleListRecords))
		r.Get("/records/{id}", metrics.InstrumentHandler("GET", "/api/v1/records/{id}", s.handleGetRecord))
		r.Delete("/records/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/records/{id}", s.handleDeleteRecord))
		r.Get("/records/{id}/decode", metrics.InstrumentHandler("GET", "/api/v1/records/{id}/decode", s.handleDecodeRecord))

		// Diagnostics
		r.Get("/quarantine", metrics.InstrumentHandler("GET", "/api/v1/quarantine", s.handleQuarantine))
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// StartServer serves s on config.Bind:config.Port until ctx is done, then
// shuts down gracefully
func StartServer(ctx context.Context, s *Server, config ServerConfig) error {
	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	updaterCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background metrics updater
	go s.startMetricsUpdater(updaterCtx, metricsUpdateInterval)

	errc := make(chan error, 1)
	go func() {
		plog.Infof("starting cperd REST API server on %s", addr)
		plog.Infof("metrics available at http://%s/metrics", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	plog.Infof("shutting down API server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
