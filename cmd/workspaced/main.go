package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/simterra/workspace/pkg/api"
	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/config"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/jobs"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
	"github.com/simterra/workspace/pkg/provisioning"
	"github.com/simterra/workspace/pkg/session"
	"github.com/simterra/workspace/pkg/storage/postgres"
)

// organizationNamespace seeds deterministic workspace record IDs. Changing it
// breaks provisioning idempotency for existing identities, so it is fixed.
var organizationNamespace = uuid.MustParse("91b7a8f2-4c6d-4e0a-9c3f-2d8a5b1e7f04")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting workspace core")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	// Tracing
	tracerProvider, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Postgres
	db, err := postgres.Connect(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	store := postgres.NewStore(db)
	logger.Info("Database connection established")

	// Redis (optional shared cache for organization snapshots)
	var redisClient *redis.Client
	var orgCache orgs.SnapshotCache
	if cfg.Storage.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup, continuing with local cache only")
		}
		orgCache = postgres.NewOrgCache(redisClient, cfg.Storage.CacheTTL, logger, metrics)
		defer redisClient.Close()
	}

	// Identity provider
	provider, err := identity.NewOIDCProvider(ctx, identity.OIDCConfig{
		IssuerURL:       cfg.Auth.IssuerURL,
		ClientID:        cfg.Auth.ClientID,
		ClientSecret:    cfg.Auth.ClientSecret,
		RegistrationURL: cfg.Auth.RegistrationURL,
		RevocationURL:   cfg.Auth.RevocationURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	// Session and workflows
	resolver := orgs.NewResolver(store, orgCache, logger)
	sessions := session.New(provider, resolver, logger, metrics)
	defer sessions.Close()
	sessions.RestoreSession(ctx)

	provisioner := provisioning.NewWorkflow(provider, store, sessions, logger, metrics, organizationNamespace)
	activation := billing.NewActivation(store, logger, metrics)
	coordinator := billing.NewCoordinator(activation, logger)

	// Subscription lapse sweep
	sweeper := jobs.NewLapseSweeper(store, logger, metrics)
	if cfg.Jobs.LapseSweepSchedule != "" {
		if err := sweeper.Start(cfg.Jobs.LapseSweepSchedule); err != nil {
			log.Fatalf("Failed to start lapse sweep: %v", err)
		}
		sweeper.RunOnce(ctx)
	}

	// API server
	apiServer := api.NewServer(api.Deps{
		Sessions:    sessions,
		Provisioner: provisioner,
		Billing:     activation,
		Checkout:    coordinator,
		Logger:      logger,
		Metrics:     metrics,
	})
	var handler http.Handler = apiServer
	if tracerProvider != nil {
		handler = otelhttp.NewHandler(handler, "workspace-api")
	}
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server on a separate port for probes
	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health/live", healthChecker.Liveness)
	healthMux.HandleFunc("/health/ready", healthChecker.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	if metrics != nil {
		go reportPoolStats(ctx, store, metrics)
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.RegisterServer(httpServer)
	shutdown.RegisterServer(healthServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		sweeper.Stop()
		return nil
	})
	if tracerProvider != nil {
		shutdown.RegisterShutdownFunc(tracerProvider.Shutdown)
	}

	go func() {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()
	go func() {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// reportPoolStats publishes database pool gauges until ctx is cancelled.
func reportPoolStats(ctx context.Context, store *postgres.Store, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.ReportPoolStats(metrics)
		}
	}
}
