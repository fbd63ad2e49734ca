package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"mercator-hq/banker/pkg/banker"
	"mercator-hq/banker/pkg/config"
	"mercator-hq/banker/pkg/server/middleware"
	"mercator-hq/banker/pkg/telemetry/health"
	"mercator-hq/banker/pkg/telemetry/logging"
)

// Options configures a Server.
type Options struct {
	// Config is the HTTP server configuration.
	Config *config.ServerConfig

	// Bank is the state being served.
	Bank *banker.Bank

	// Logger is optional; nil discards logs.
	Logger *logging.Logger

	// Health is optional; a checker with a "state" check is created when nil.
	Health *health.Checker

	// MetricsHandler is mounted on MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string

	// Version is reported on /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the banker HTTP API server.
type Server struct {
	opts       Options
	logger     *logging.Logger
	health     *health.Checker
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. Config and Bank are required.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if opts.Bank == nil {
		return nil, fmt.Errorf("bank is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	checker := opts.Health
	if checker == nil {
		checker = health.New(0)
		checker.RegisterCheck("state", StateCheck(opts.Bank))
	}

	return &Server{
		opts:   opts,
		logger: logger.WithComponent("server"),
		health: checker,
	}, nil
}

// StateCheck returns a readiness check that fails when the bank's state
// breaks an invariant or is unsafe.
func StateCheck(bank *banker.Bank) health.CheckFunc {
	return bank.Healthy
}

// Start listens on the configured address and blocks until ctx is done or
// the listener fails. On ctx cancellation it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:         s.opts.Config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.Config.ReadTimeout,
		WriteTimeout: s.opts.Config.WriteTimeout,
		IdleTimeout:  s.opts.Config.IdleTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.opts.Config.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		httpServer := s.httpServer
		running := s.isRunning
		s.mu.Unlock()
		if !running || httpServer == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.opts.Config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.opts.Config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.opts.Config.ShutdownTimeout)
			defer cancel()
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	h := &handlers{bank: s.opts.Bank, logger: s.logger, maxBody: s.opts.Config.MaxBodyBytes}
	mux.HandleFunc("POST /v1/requests", h.evaluate)
	mux.HandleFunc("POST /v1/releases", h.release)
	mux.HandleFunc("GET /v1/state", h.state)
	mux.HandleFunc("GET /v1/safety", h.safety)

	mux.Handle("/health", s.health.LivenessHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.opts.Version, s.opts.Commit, s.opts.BuildTime))

	if s.opts.MetricsHandler != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle(path, s.opts.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}
