package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/phuslu/log"

	"OilTracker/internal/analytics"
	"OilTracker/internal/store"
	"OilTracker/internal/watch"
)

// Server manages the HTTP server and routes.
type Server struct {
	store     store.Store
	analytics *analytics.Service
	watch     *watch.Watcher
	router    *http.ServeMux
	server    *http.Server
}

// New creates a new HTTP server listening on addr.
func New(addr string, st store.Store, svc *analytics.Service, w *watch.Watcher) *Server {
	s := &Server{store: st, analytics: svc, watch: w}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("address", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}
