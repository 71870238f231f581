// package server contains middleware & handlers for the EmoTune JSON API
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Route is one method and path pattern served by a [Handler].
type Route struct {
	Method     string
	Path       string // ServeMux pattern, may contain {wildcards}
	Handler    http.HandlerFunc
	Middleware []Middleware // applied to this route only
}

// Handler groups the routes of one API area (auth, music, emotion, user).
type Handler interface {
	Routes() []Route // Routes returns the routes this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                                               // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler, middleware ...Middleware) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                                                    // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)                           // ServeHTTP implements http.Handler for the entire router
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API. Catalog, Cache and Detector may be nil.
type Deps struct {
	DB          *sql.DB
	Accounts    *auth.AccountService
	Tokens      *auth.TokenService
	Resets      *auth.ResetAuthority
	Ledger      *ledger.Ledger
	Recommender *recommend.Orchestrator
	Catalog     services.MusicCatalog
	Detector    *tasks.DetectEngine
	Cache       Pinger
}

// Server is the EmoTune HTTP API.
type Server struct {
	config   shared.ServerConfig
	deps     Deps
	router   *BasicRouter
	registry *prometheus.Registry
	logger   *log.Logger
}

// New wires every API route and middleware onto a fresh router.
func New(config shared.ServerConfig, deps Deps, logger *log.Logger) (*Server, error) {
	if deps.DB == nil || deps.Accounts == nil || deps.Tokens == nil || deps.Resets == nil || deps.Ledger == nil {
		return nil, fmt.Errorf("%w: server requires database, accounts, tokens, resets and ledger", shared.ErrMissingConfig)
	}
	if deps.Recommender == nil {
		deps.Recommender = recommend.New(recommend.WithLogger(logger))
	}
	if deps.Detector == nil {
		deps.Detector = tasks.NewDetectEngine(nil)
	}

	s := &Server{
		config:   config,
		deps:     deps,
		router:   NewBasicRouter(),
		registry: prometheus.NewRegistry(),
		logger:   shared.WithLogger(logger, "component", "server"),
	}

	metrics := newHTTPMetrics()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.registry.MustRegister(metrics.collectors()...)
	s.registry.MustRegister(deps.Recommender.Metrics().Collectors()...)

	s.router.Use(
		Recover(s.logger),
		Logging(s.logger),
		CORS(config.CORSOrigins),
		RateLimit(config.RateLimit),
		metrics.Middleware,
	)

	requireAuth := RequireAuth(deps.Tokens, s.logger)
	authLimit := RateLimit(config.AuthLimit)

	s.router.Handler(&healthHandler{db: deps.DB, cache: deps.Cache})
	s.router.Handler(&authHandler{
		accounts: deps.Accounts, resets: deps.Resets, requireAuth: requireAuth, limit: authLimit, logger: s.logger,
	})
	s.router.Handler(&musicHandler{
		ledger: deps.Ledger, recommender: deps.Recommender, catalog: deps.Catalog, requireAuth: requireAuth, logger: s.logger,
	})
	s.router.Handler(&emotionHandler{
		detector: deps.Detector, recommender: deps.Recommender, requireAuth: requireAuth, logger: s.logger,
	})
	s.router.Handler(&userHandler{
		accounts: deps.Accounts, ledger: deps.Ledger, requireAuth: requireAuth, logger: s.logger,
	})
	s.router.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
