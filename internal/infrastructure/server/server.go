package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
)

const defaultShutdownTimeout = 10 * time.Second

// Server is the ops HTTP listener for health, readiness, metrics, the audit
// trail and config reload. It never carries chat traffic.
type Server struct {
	server          *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu        sync.Mutex
	addr      string
	listening chan struct{}
}

// New creates the ops server on cfg.Port. Port 0 picks a free port.
func New(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}
	addr := fmt.Sprintf(":%d", cfg.Port)

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger:          logger.With("component", "ops-http"),
		shutdownTimeout: shutdown,
		addr:            addr,
		listening:       make(chan struct{}),
	}
}

// Run serves until ctx is done, then drains in-flight requests for up to the
// shutdown timeout. A failure to bind is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("ops server listen on %s: %w", s.server.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	close(s.listening)
	s.logger.Info("ops server listening", "addr", s.Addr())

	served := make(chan error, 1)
	go func() { served <- s.server.Serve(ln) }()

	select {
	case err := <-served:
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("ops server draining", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		_ = s.server.Close()
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server: %w", err)
	}

	s.logger.Info("ops server stopped")
	return nil
}

// Listening is closed once the listener is bound.
func (s *Server) Listening() <-chan struct{} {
	return s.listening
}

// Addr returns the bound address once listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
