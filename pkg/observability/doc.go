// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry tracing for the workspace core.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("identity_id", id).Info("session restored")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.SignInsTotal.WithLabelValues("success").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	http.HandleFunc("/health/ready", checker.Readiness)
//
// # Tracing
//
//	tp, err := observability.InitTracing(ctx, cfg, logger)
//	defer tp.Shutdown(ctx)
package observability
