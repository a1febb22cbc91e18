// Package server runs the spyglass data-plane and control-plane listeners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"spyglass-hq/spyglass/pkg/config"
	"spyglass-hq/spyglass/pkg/proxy/middleware"
)

// Server owns both HTTP listeners: the data plane serving proxied traffic and
// the control plane serving the inspection API. They start and stop together;
// shutdown drains the data plane before the control plane so observers can
// still read state while traffic finishes.
type Server struct {
	config   *config.Config
	pipeline http.Handler
	control  http.Handler

	dataServer    *http.Server
	controlServer *http.Server
	dataAddr      string
	controlAddr   string

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server for the given pipeline and control handlers.
// Neither listener is bound until Start.
func NewServer(cfg *config.Config, pipeline, control http.Handler) *Server {
	return &Server{
		config:       cfg,
		pipeline:     pipeline,
		control:      control,
		shutdownChan: make(chan struct{}),
	}
}

// Start binds both listeners and blocks until the context is cancelled, a
// shutdown signal arrives, Stop is called, or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.dataServer = &http.Server{
		Addr:    s.config.Listen,
		Handler: s.dataPlaneHandler(),
		// No ReadTimeout/WriteTimeout: proxied bodies may stream for
		// longer than any sane whole-request bound.
		ReadHeaderTimeout: s.config.Proxy.ReadHeaderTimeout,
		IdleTimeout:       s.config.Proxy.IdleTimeout,
		MaxHeaderBytes:    s.config.Proxy.MaxHeaderBytes,
	}

	s.controlServer = &http.Server{
		Addr:              s.config.Control.Listen,
		Handler:           s.controlPlaneHandler(),
		ReadHeaderTimeout: s.config.Proxy.ReadHeaderTimeout,
		IdleTimeout:       s.config.Proxy.IdleTimeout,
		MaxHeaderBytes:    s.config.Proxy.MaxHeaderBytes,
	}

	// Bind both listeners before serving so an occupied port fails fast and
	// ":0" test addresses resolve to their real port.
	dataListener, err := net.Listen("tcp", s.dataServer.Addr)
	if err != nil {
		s.setRunning(false)
		return fmt.Errorf("failed to bind data listener on %s: %w", s.dataServer.Addr, err)
	}

	controlListener, err := net.Listen("tcp", s.controlServer.Addr)
	if err != nil {
		dataListener.Close()
		s.setRunning(false)
		return fmt.Errorf("failed to bind control listener on %s: %w", s.controlServer.Addr, err)
	}

	s.mu.Lock()
	s.dataAddr = dataListener.Addr().String()
	s.controlAddr = controlListener.Addr().String()
	s.mu.Unlock()

	errChan := make(chan error, 2)

	go func() {
		slog.Info("data plane listening", "address", s.DataAddr())
		if err := s.dataServer.Serve(dataListener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("data listener error: %w", err)
		}
	}()

	go func() {
		slog.Info("control API listening", "address", s.ControlAddr())
		if err := s.controlServer.Serve(controlListener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("control listener error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a blocked Start to shut down. Safe to call more than once and
// before Start.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// Shutdown gracefully stops both listeners, the data plane first so in-flight
// proxied requests drain while the control API stays readable.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Proxy.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Proxy.ShutdownTimeout)
		defer cancel()

		if s.dataServer != nil {
			if err := s.dataServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during data plane shutdown", "error", err)
				shutdownErr = fmt.Errorf("data plane shutdown error: %w", err)
			}
		}

		if s.controlServer != nil {
			if err := s.controlServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during control API shutdown", "error", err)
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("control API shutdown error: %w", err)
				}
			}
		}

		s.setRunning(false)
		slog.Info("server stopped")
	})

	return shutdownErr
}

// dataPlaneHandler wraps the pipeline in the middleware chain.
func (s *Server) dataPlaneHandler() http.Handler {
	var handler http.Handler = s.pipeline

	// Request ID middleware
	handler = middleware.RequestIDMiddleware(handler)

	// Logging middleware
	handler = middleware.LoggingMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// controlPlaneHandler wraps the control router. No access logging here: the
// TUI polls stats and history twice a second.
func (s *Server) controlPlaneHandler() http.Handler {
	var handler http.Handler = s.control

	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// DataAddr returns the bound data-plane address. Empty until Start has bound
// the listener.
func (s *Server) DataAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataAddr
}

// ControlAddr returns the bound control API address. Empty until Start has
// bound the listener.
func (s *Server) ControlAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controlAddr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}
