package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/fares-validator/pkg/api"
	"github.com/platinummonkey/fares-validator/pkg/config"
	"github.com/platinummonkey/fares-validator/pkg/feedsource"
	"github.com/platinummonkey/fares-validator/pkg/middleware"
	"github.com/platinummonkey/fares-validator/pkg/observability"
	"github.com/platinummonkey/fares-validator/pkg/reportcache"
	"github.com/platinummonkey/fares-validator/pkg/reportstore"
	"github.com/platinummonkey/fares-validator/pkg/validator"
)

// Version is reported by health checks and telemetry; set at build time
var Version = "dev"

func newServeCommand() *Command {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	return &Command{
		Name:        "serve",
		Description: "Run the validation HTTP API (configured from FV_* environment)",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return runServe(context.Background(), cfg)
		},
	}
}

// service holds everything serve wires together
type service struct {
	logger      *observability.Logger
	registry    *prometheus.Registry
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
	store       *reportstore.SQLStore
	redis       *redis.Client
	cache       reportcache.Cache
	resolver    *feedsource.Resolver
	engine      *validator.Engine
	limiter     middleware.Limiter
	stopLimiter context.CancelFunc
	api         *api.Server
}

// buildService connects the store, cache and S3 client described by cfg.
// On error everything opened so far is closed.
func buildService(ctx context.Context, cfg *config.Config, logger *observability.Logger) (_ *service, err error) {
	s := &service{logger: logger}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if cfg.Observability.MetricsEnabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.metrics = observability.NewMetrics(s.registry)
	}

	if cfg.Observability.OTelEnabled {
		s.otelMetrics, err = observability.NewOTelMetrics()
		if err != nil {
			return nil, err
		}
	}

	if cfg.Store.Driver != "" {
		s.store, err = reportstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN,
			reportstore.WithLogger(logger.Logrus()),
			reportstore.WithMetrics(s.metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
	}

	if cfg.Cache.Enabled {
		memory := reportcache.NewMemoryCache(reportcache.Config{
			MaxEntries: cfg.Cache.MaxEntries,
			TTL:        cfg.Cache.TTL,
		}, s.metrics)
		s.cache = memory

		if cfg.Cache.RedisURL != "" {
			s.redis, err = reportcache.NewRedisClient(ctx, reportcache.RedisOptions{
				URL:      cfg.Cache.RedisURL,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
				PoolSize: cfg.Cache.RedisPoolSize,
			})
			if err != nil {
				return nil, err
			}
			shared := reportcache.NewRedisCache(s.redis, cfg.Cache.TTL, s.metrics, logger.Logrus())
			s.cache = reportcache.NewTiered(memory, shared, logger.Logrus())
		}
	}

	resolverOpts := []feedsource.Option{feedsource.WithLogger(logger.Logrus())}
	if cfg.S3.Enabled {
		fetcher, err := feedsource.NewS3Fetcher(ctx, s3Config(cfg.S3))
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		resolverOpts = append(resolverOpts, feedsource.WithS3(fetcher))
	}
	s.resolver = feedsource.NewResolver(resolverOpts...)

	validatorConfig := validator.DefaultConfig()
	if cfg.Validation.ConfigPath != "" {
		validatorConfig, err = validator.LoadConfig(cfg.Validation.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load validator config: %w", err)
		}
	}
	s.engine = validator.NewEngine(validatorConfig,
		validator.WithLogger(logger.Logrus()),
		validator.WithMetrics(s.metrics),
		validator.WithOTelMetrics(s.otelMetrics),
	)

	if cfg.Server.RateLimit > 0 {
		limitConfig := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.Server.RateLimit,
			WindowDuration:    time.Minute,
			BurstSize:         cfg.Server.RateLimitBurst,
		}
		if s.redis != nil {
			s.limiter = middleware.NewDistributedRateLimiter(s.redis, limitConfig, "")
		} else {
			local := middleware.NewRateLimiter(limitConfig)
			var cleanupCtx context.Context
			cleanupCtx, s.stopLimiter = context.WithCancel(context.Background())
			local.StartCleanup(cleanupCtx)
			s.limiter = local
		}
	}

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Validation.Timeout),
		api.WithHealthChecker(observability.NewHealthChecker(s.storeDB(), s.redisClient(), Version)),
	}
	if s.store != nil {
		apiOpts = append(apiOpts, api.WithStore(s.store))
	}
	if s.cache != nil {
		apiOpts = append(apiOpts, api.WithCache(s.cache))
	}
	if s.metrics != nil {
		apiOpts = append(apiOpts, api.WithMetrics(s.metrics, s.registry))
	}
	if s.limiter != nil {
		apiOpts = append(apiOpts, api.WithRateLimiter(s.limiter))
	}
	s.api = api.NewServer(s.resolver, s.engine, apiOpts...)

	return s, nil
}

func (s *service) storeDB() *sql.DB {
	if s.store == nil {
		return nil
	}
	return s.store.DB()
}

// redisClient avoids handing a typed nil to the health checker interface
func (s *service) redisClient() redis.UniversalClient {
	if s.redis == nil {
		return nil
	}
	return s.redis
}

// close releases the cache (and its Redis client) and the store
func (s *service) close() error {
	if s.stopLimiter != nil {
		s.stopLimiter()
	}
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	} else if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		observability.ShutdownOTel(ctx, providers, logger)
		return err
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      svc.api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           svc.api.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var scheduler *cron.Cron
	if svc.store != nil && cfg.Store.Retention > 0 {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc("@hourly", func() {
			cleanupRuns(context.Background(), svc.store, cfg.Store.Retention, logger)
		}); err != nil {
			svc.close()
			return err
		}
		scheduler.Start()
	}

	sm := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(healthServer.Shutdown)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		return svc.close()
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	listen := func(name string, server *http.Server) {
		logger.Infof("Starting %s server on %s", name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Errorf("%s server failed", name)
			cancel()
		}
	}
	go listen("API", apiServer)
	go listen("health", healthServer)

	return sm.WaitForShutdown(serveCtx)
}
