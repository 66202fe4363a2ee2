// Package server implements the HTTP server that exposes question triage
// via a REST API. The server is started by the `carl serve` CLI command.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/store"
)

// New constructs a Server from the provided triager, decision log, and config.
// decisions may be nil, in which case decision logging and GET /api/decisions
// are disabled.
func New(t triager, decisions store.DecisionStore, cfg *Config) (*Server, error) {
	if t == nil {
		return nil, fmt.Errorf("server: triager must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		triager:   t,
		decisions: decisions,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(cfg.MetricsRegistry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: CARL_API_KEY not set — API authentication is disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// protected wraps an API handler with auth and per-IP rate limiting.
	// Health, readiness, and metrics stay open for probes and scrapers.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.metrics.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}
	open := func(name string, h http.Handler) http.Handler {
		return s.metrics.instrument(name, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/similar", protected("similar", s.handleSimilar))
	mux.Handle("GET /api/health", open("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", open("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", open("metrics",
		promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	if decisions != nil {
		mux.Handle("GET /api/decisions", protected("decisions", s.handleDecisions))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		fmt.Printf("carl server listening on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}
