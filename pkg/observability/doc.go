// Package observability provides structured logging, Prometheus metrics, health
// checks and OpenTelemetry tracing.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("guard", "require-role").Warn("Request denied")
//
// Request-scoped loggers travel on the context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).Info("handled")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordDecision("require-permission", "deny")
//	metrics.RecordDenial("PermissionDenied")
//
// A nil *Metrics is valid and records nothing.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	router.HandleFunc("/healthz", checker.Liveness)
//	router.HandleFunc("/readyz", checker.Readiness)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "gatekeepd",
//		Environment: "production",
//		SampleRatio: 0.1,
//	}, logger)
//
// The resource carries service.namespace "gatekeep" and flags for the
// ownership and rate limiting layers. Guard chain spans use the AttrAuthz*
// attribute keys.
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/middleware: Guard chain instrumentation
package observability
