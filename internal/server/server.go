// Package server runs the login HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/server/handler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// defaultShutdownTimeout is used when the config leaves it unset
	defaultShutdownTimeout = 5 * time.Second
)

// Server owns the listener and the http.Server serving the login routes.
type Server struct {
	config   *config.ServerConfig
	http     *http.Server
	listener net.Listener
	errChan  chan error
}

// NewServer creates a server for h. It does not listen until Start.
func NewServer(cfg *config.ServerConfig, h http.Handler) *Server {
	if cfg == nil {
		logger.Fatal("Server config cannot be nil")
	}

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}

	return &Server{
		config: cfg,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           h,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		errChan: make(chan error, 1),
	}
}

// Start binds the listen address and serves in the background. Bind errors
// are returned directly so the app fails to start.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	s.listener = ln

	go func() {
		logger.Info("Starting server", zap.String("address", ln.Addr().String()))
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
			s.errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests, bounded by the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr is the bound address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.http.Addr
	}
	return s.listener.Addr().String()
}

// Errors reports a serve loop failure after Start returned.
func (s *Server) Errors() <-chan error {
	return s.errChan
}

func register(lc fx.Lifecycle, shutdowner fx.Shutdowner, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Start(ctx); err != nil {
				return err
			}
			go func() {
				if err, ok := <-s.errChan; ok && err != nil {
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer close(s.errChan)
			return s.Stop(ctx)
		},
	})
}

// Module provides the HTTP server and ties it to the app lifecycle
var Module = fx.Module("server",
	fx.Provide(
		handler.NewHandler,
		func(h *handler.Handler) http.Handler { return h.CreateHTTPHandler() },
		NewServer,
	),
	fx.Invoke(register),
)
