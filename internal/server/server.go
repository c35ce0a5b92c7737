package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// New constructs a Server around the provided handler.
func New(addr string, handler http.Handler, baseLogger *zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: baseLogger.With().Str("component", "http_server").Logger(),
	}
}

// Start begins listening for HTTP traffic. It blocks until the server
// stops and returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully terminates all active connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
