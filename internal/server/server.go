// Package server hosts the courseforge HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/config"
	"github.com/jackzampolin/courseforge/internal/coursegen"
	"github.com/jackzampolin/courseforge/internal/generation"
	"github.com/jackzampolin/courseforge/internal/home"
	"github.com/jackzampolin/courseforge/internal/metrics"
	"github.com/jackzampolin/courseforge/internal/providers"
	"github.com/jackzampolin/courseforge/internal/server/endpoints"
	"github.com/jackzampolin/courseforge/internal/svcctx"
)

// Server is the main courseforge HTTP server.
type Server struct {
	httpServer  *http.Server
	registry    *providers.Registry
	metrics     *metrics.Recorder
	configMgr   *config.Manager
	home        *home.Dir
	corsOrigins []string
	logger      *slog.Logger

	// services is swapped as a whole when the config file changes
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 5000)
	Port string
	// CORSOrigins lists allowed origins; "*" allows any (default: ["*"])
	CORSOrigins []string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// AppConfig is used when no ConfigManager is set (default: config.DefaultConfig())
	AppConfig *config.Config
	// Registry overrides the provider registry built from config. It is not
	// reloaded on config changes.
	Registry *providers.Registry
	// Home is the courseforge home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := cfg.AppConfig
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}
	if appCfg == nil {
		appCfg = config.DefaultConfig()
	}

	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = appCfg.Server.CORSOrigins
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	// Create provider registry
	registry := cfg.Registry
	ownRegistry := registry == nil
	if ownRegistry {
		registry = providers.NewRegistry()
		registry.SetLogger(cfg.Logger)
		registry.Reload(appCfg.ToProviderRegistryConfig())
	}

	s := &Server{
		registry:    registry,
		metrics:     metrics.NewRecorder(appCfg.Server.MetricsCapacity),
		configMgr:   cfg.ConfigManager,
		home:        cfg.Home,
		corsOrigins: cfg.CORSOrigins,
		logger:      cfg.Logger,
	}

	services, err := s.buildServices(appCfg)
	if err != nil {
		return nil, err
	}
	s.services.Store(services)

	// Watch for config changes
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			if ownRegistry {
				registry.Reload(c.ToProviderRegistryConfig())
				cfg.Logger.Info("provider registry reloaded from config")
			}
			if err := s.Reload(c); err != nil {
				cfg.Logger.Error("keeping previous generation settings", "error", err)
			}
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withCORS(s.withServices(mux)),
		ReadTimeout: 30 * time.Second,
		// A course with two repair rounds is three sequential model calls
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildServices wires prompts, the generation client and the course service
// for one configuration snapshot.
func (s *Server) buildServices(c *config.Config) (*svcctx.Services, error) {
	resolver := generation.NewPromptResolver(s.logger)
	if err := resolver.SetOverrides(c.PromptOverrides()); err != nil {
		return nil, fmt.Errorf("invalid prompt overrides: %w", err)
	}

	settings := c.ToGenerationSettings()
	client, err := generation.NewLLMClient(generation.LLMClientConfig{
		Source:   s.registry,
		Provider: c.Defaults.LLMProvider,
		Prompts:  resolver,
		Settings: settings,
		Recorder: s.metrics,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	generator, err := coursegen.New(coursegen.Config{
		Client:   client,
		Settings: settings,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create course generator: %w", err)
	}

	return &svcctx.Services{
		Registry:        s.registry,
		DefaultProvider: c.Defaults.LLMProvider,
		Prompts:         resolver,
		Generator:       generator,
		Settings:        settings,
		Metrics:         s.metrics,
		Logger:          s.logger,
		Home:            s.home,
	}, nil
}

// Reload rebuilds generation services from c. In-flight requests finish with
// the services they started with. On error the previous services stay active.
func (s *Server) Reload(c *config.Config) error {
	services, err := s.buildServices(c)
	if err != nil {
		return err
	}
	s.services.Store(services)
	s.logger.Info("generation services reloaded",
		"provider", services.DefaultProvider,
		"domain", services.Settings.Domain,
	)
	return nil
}

// Start starts the HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if services := s.services.Load(); !s.registry.HasLLM(services.DefaultProvider) {
		s.logger.Warn("default LLM provider not registered; course requests will fail",
			"provider", services.DefaultProvider)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Metrics returns the model call recorder. It survives config reloads.
func (s *Server) Metrics() *metrics.Recorder {
	return s.metrics
}

// Services returns the active services.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.services.Load(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withCORS adds CORS headers for allowed origins and answers preflight
// requests directly.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowedOrigin(origin); allowed != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if services aren't wired.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if services := s.services.Load(); services == nil || services.Generator == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
