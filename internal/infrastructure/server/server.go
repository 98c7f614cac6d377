package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/config"
)

// Server represents HTTP server
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// NewServer wraps handler with CORS for the configured origins.
func NewServer(cfg *config.ServerConfig, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           withCORS(cfg.AllowedOrigins, handler),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
		log: log,
	}
}

func withCORS(origins []string, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	}).Handler(h)
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server within ctx's deadline
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}
