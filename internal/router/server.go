package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/middleware"
	"dev.copilot.gateway/internal/observability/metrics"
)

// Server wraps the engine in an http.Server with lifecycle management.
// It owns the rate limiter's background sweep.
type Server struct {
	engine  *gin.Engine
	server  *http.Server
	limiter *middleware.RateLimiter
	log     *logrus.Logger

	mu      sync.Mutex
	running bool
}

// New builds the fully wired gateway server. The write timeout from the
// config must exceed the CLI timeout or streaming responses get cut off.
func New(cfg *config.Config, svc *copilot.Service, collector *metrics.Collector, log *logrus.Logger) *Server {
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, log)
	}

	engine := Setup(cfg, svc, collector, limiter, log)

	return &Server{
		engine:  engine,
		limiter: limiter,
		log:     log,
		server: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves HTTP and blocks until Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.log.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if s.limiter != nil {
		defer s.limiter.Stop()
	}
	if !wasRunning {
		return nil
	}

	s.log.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// ServeHTTP implements http.Handler, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.engine.ServeHTTP(w, req)
}
