package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/gatekeep/pkg/api"
	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/config"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/middleware"
	"github.com/platinummonkey/gatekeep/pkg/observability"
	"github.com/platinummonkey/gatekeep/pkg/ownership"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("GATEKEEP_CONFIG"), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	otel, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Environment:    cfg.Observability.OTelEnvironment,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
		Ownership:      cfg.Database.Driver != "",
		RateLimit:      cfg.RateLimit.Enabled,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = observability.ShutdownOTel(shutdownCtx, otel, logger)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	redisClient, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sessions := auth.NewSessionStore(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.SessionTTL, logger)

	opts := api.Options{
		Sessions:       sessions,
		Logger:         logger,
		Metrics:        metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	var db *sql.DB
	if cfg.Database.Driver != "" {
		db, err = ownership.Open(ctx, ownership.ConnectionConfig{
			Driver:      cfg.Database.Driver,
			DSN:         cfg.Database.DSN,
			MaxConns:    cfg.Database.MaxOpenConns,
			MinConns:    cfg.Database.MaxIdleConns,
			MaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		owners, err := ownership.NewStore(db, cfg.Database.Driver, ownership.DefaultKinds(),
			ownership.WithCache(cfg.Database.OwnerCacheSize, cfg.Database.OwnerCacheTTL),
			ownership.WithMetrics(metrics),
			ownership.WithLogger(logger))
		if err != nil {
			return err
		}
		opts.CourseOwners = owners.ForTenantResource("courses")

		roles, err := ownership.NewRoleWriter(db, cfg.Database.Driver, ownership.DefaultUserTable())
		if err != nil {
			return err
		}
		opts.Roles = roles

		scheduler := cron.New()
		if _, err := owners.ScheduleStats(scheduler, cfg.Database.StatsSchedule); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		logger.Warn("No ownership database configured; ownership checks will deny")
	}

	auditLogger, err := openAudit(cfg.Audit)
	if err != nil {
		return err
	}
	defer auditLogger.Close()
	opts.Audit = auditLogger

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimitMiddleware(redisClient,
			&middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimit.PrincipalRequests, WindowDuration: cfg.RateLimit.Window},
			&middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimit.AnonymousRequests, WindowDuration: cfg.RateLimit.Window})
		limiter.SetFailOpen(cfg.RateLimit.FailOpen)
		trusted, err := httputil.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			return err
		}
		limiter.SetTrustedProxies(trusted)
		opts.RateLimiter = limiter
	}

	health := observability.NewHealthChecker(db, redisClient, version)
	opts.Health = health

	server := api.NewServer(opts)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	observability.RegisterMetricsEndpoint(healthMux, registry)
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, healthServer} {
		srv := srv
		g.Go(func() error {
			logger.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), healthServer.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Password != "" {
		redisOpts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		redisOpts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		redisOpts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func openAudit(cfg config.AuditConfig) (audit.Logger, error) {
	if !cfg.Enabled {
		return audit.NewLogrusLogger(io.Discard), nil
	}

	var sink *audit.LogrusLogger
	if cfg.OutputPath != "" {
		fileLogger, err := audit.NewFileLogger(cfg.OutputPath)
		if err != nil {
			return nil, err
		}
		sink = fileLogger
	} else {
		sink = audit.NewLogrusLogger(os.Stdout)
	}

	multi := audit.NewMultiLogger(sink)
	multi.SetAsync(cfg.Async)
	return multi, nil
}
