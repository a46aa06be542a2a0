package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/fares-validator/pkg/feedsource"
	"github.com/platinummonkey/fares-validator/pkg/httputil"
	"github.com/platinummonkey/fares-validator/pkg/middleware"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/reportcache"
	"github.com/platinummonkey/fares-validator/pkg/reportstore"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// maxRequestBytes bounds request bodies; requests only carry a feed reference
const maxRequestBytes = 64 << 10

// FeedResolver makes a feed reference available locally
type FeedResolver interface {
	Resolve(ctx context.Context, ref string) (*feedsource.Feed, error)
}

// Validator validates a local feed directory
type Validator interface {
	Validate(ctx context.Context, feedRoot string) (*validator.Result, error)
}

// Server is the HTTP API server
type Server struct {
	router   *mux.Router
	resolver FeedResolver
	engine   Validator
	store    reportstore.Store
	cache    reportcache.Cache
	health   *observability.HealthChecker
	metrics  *observability.Metrics
	registry *prometheus.Registry
	logger   *observability.Logger
	timeout  time.Duration
	limiter  middleware.Limiter
}

// Option configures a Server
type Option func(*Server)

// WithStore persists runs and enables the read endpoints
func WithStore(store reportstore.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithCache reuses results for identical feed content
func WithCache(cache reportcache.Cache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithHealthChecker serves dependency health on the /health routes
func WithHealthChecker(health *observability.HealthChecker) Option {
	return func(s *Server) {
		s.health = health
	}
}

// WithMetrics instruments requests and serves registry on /metrics
func WithMetrics(metrics *observability.Metrics, registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.registry = registry
	}
}

// WithLogger sets the server logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimiter limits validation requests per client address
func WithRateLimiter(limiter middleware.Limiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// WithTimeout bounds each validation request; zero means no bound
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// NewServer creates a new API server
func NewServer(resolver FeedResolver, engine Validator, opts ...Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		resolver: resolver,
		engine:   engine,
		health:   observability.NewHealthChecker(nil, nil, ""),
		logger:   observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics, routeTemplate))
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()
	var create http.Handler = http.HandlerFunc(s.createValidation)
	if s.limiter != nil {
		create = middleware.RateLimit(s.limiter, middleware.ByClientIP, s.logger)(create)
	}
	v1.Handle("/validations", create).Methods(http.MethodPost)
	v1.HandleFunc("/validations", s.listValidations).Methods(http.MethodGet)
	v1.HandleFunc("/validations/{id}", s.getValidation).Methods(http.MethodGet)
	v1.HandleFunc("/codes", s.listCodes).Methods(http.MethodGet)

	s.registerOperationalRoutes(s.router)
}

func (s *Server) registerOperationalRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.health.Readiness).Methods(http.MethodGet)
	router.HandleFunc("/health/live", s.health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", s.health.Readiness).Methods(http.MethodGet)
	if s.registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(s.registry)).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler without the middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped with tracing, request IDs, request
// logging, panic recovery and a body size limit.
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.MaxBytesMiddleware(maxRequestBytes),
	)
	return otelhttp.NewHandler(chain(s.router), "fares-validator",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// HealthHandler serves only the health and metrics routes, for a separate
// probe port.
func (s *Server) HealthHandler() http.Handler {
	router := mux.NewRouter()
	s.registerOperationalRoutes(router)
	return router
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
