// ABOUTME: HTTP server that hosts the store sync handler and health endpoints
// ABOUTME: Owns the cache store and the listener lifecycle, with graceful shutdown

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/store-sync/internal/config"
	"github.com/2389/store-sync/internal/gist"
	"github.com/2389/store-sync/internal/store"
	"github.com/2389/store-sync/internal/storesync"
)

// Server hosts the store sync handler.
type Server struct {
	config      *config.Config
	store       store.Store
	handler     *storesync.Handler
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger
}

// OpenStore opens the cache backend named by cfg. The none backend returns a
// nil Store, which callers treat as "no cache".
func OpenStore(cfg config.CacheConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// newGistClient builds the outbound client from the github config section.
func newGistClient(cfg config.GitHubConfig) *gist.Client {
	opts := []gist.ClientOption{
		gist.WithBaseURL(cfg.BaseURL),
		gist.WithUserAgent(cfg.UserAgent),
		gist.WithRateLimit(cfg.RateLimit),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gist.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return gist.NewClient(cfg.Token, opts...)
}

// New creates a Server from cfg. It opens the cache store but does not listen.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := OpenStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if cfg.GitHub.Token == "" {
		logger.Warn("github token not configured; every request will fail until GITHUB_TOKEN is set")
	}

	// A nil store must stay a nil Cache so the handler skips memoization
	var cache store.Cache
	if s != nil {
		cache = s
	}

	srv := &Server{
		config: cfg,
		store:  s,
		logger: logger,
	}
	client := newGistClient(cfg.GitHub)
	logger.Info("gist client configured", "base_url", client.BaseURL(), "rate_limit", cfg.GitHub.RateLimit, "timeout", cfg.GitHub.Timeout)

	srv.handler = storesync.New(storesync.Config{
		Token:  cfg.GitHub.Token,
		Cache:  cache,
		Client: client,
		Logger: logger.With("component", "storesync"),
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, srv.handler)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/health/ready", srv.handleReady)

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// setupListener creates the HTTP listener based on configuration (Tailscale or TCP).
func (s *Server) setupListener(ctx context.Context) (net.Listener, error) {
	if s.config.Tailscale.Enabled {
		if s.config.Server.HTTPAddr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", s.config.Server.HTTPAddr)
		}
		return s.setupTailscaleListener(ctx)
	}

	s.logger.Info("starting store-sync", "http_addr", s.config.Server.HTTPAddr, "path", s.config.Server.Path)
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run serves until the context is canceled or the server fails, then shuts
// down gracefully. Returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.setupListener(ctx)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the serving context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases the tailnet node and cache store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down store-sync")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	if s.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
	}
	if s.store != nil {
		errs = appendCloseError(errs, "store close", s.store.Close())
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 once a GitHub token is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.config.GitHub.Token == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("missing " + storesync.TokenName))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
