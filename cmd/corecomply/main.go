// Package main is the entry point for the CoreComply server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/config"
	"github.com/corecomply/corecomply/internal/discovery"
	"github.com/corecomply/corecomply/internal/evidence"
	"github.com/corecomply/corecomply/internal/matching"
	"github.com/corecomply/corecomply/internal/obligations"
	"github.com/corecomply/corecomply/internal/observability"
	"github.com/corecomply/corecomply/internal/org"
	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/internal/rasci"
	"github.com/corecomply/corecomply/internal/register"
	"github.com/corecomply/corecomply/internal/setup"
	"github.com/corecomply/corecomply/internal/transport"
	"github.com/corecomply/corecomply/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "corecomply", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// State store: snapshots live in memory or postgres per config.
	states, statesCloser, err := buildStateStore(ctx, cfg.Persistence, logger)
	if err != nil {
		logger.Error("state store initialization failed", zap.Error(err))
		return 1
	}

	// Domain stores, rehydrated from snapshots where they exist.
	evidenceStore := evidence.NewStore(ctx, states, logger)
	obligationStore := obligations.NewStore(ctx, states, logger)
	rasciStore := rasci.NewStore(ctx, states, logger)
	orgStore := org.NewStore(ctx, states, logger)
	registerStore := register.NewStore(ctx, states, logger)

	// A personnel hand-over re-expands the adopted templates so every
	// assignment moves to the successor.
	orgStore.OnPersonnelChange(func(ctx context.Context, directory model.RoleDirectory) {
		if !rasciStore.Adopted() {
			return
		}
		rasciStore.AdoptFromKeyPersonnel(ctx, directory)
		metrics.RecordRASCIAdoption()
		logger.Info("responsibility templates re-adopted after personnel change")
	})

	calc := setup.NewCalculator(ctx, setup.ReadPorts{
		IntegrationsConnected:  orgStore.IntegrationsConnected,
		CompanyProfileComplete: orgStore.ProfileComplete,
		PeopleLoaded:           orgStore.PeopleLoaded,
		RASCIAdopted:           rasciStore.Adopted,
		ObligationsSeeded:      obligationStore.Seeded,
		TimetableConfigured:    orgStore.TimetableConfigured,
		EvidenceCollected:      evidenceStore.HasEvidence,
	}, states, logger)

	adapters := discovery.DefaultAdapters()
	orchestrator := discovery.NewOrchestrator(
		adapters, matching.NewMatcher(), evidenceStore, logger,
		discovery.WithAdapterTimeout(cfg.Discovery.AdapterTimeout),
		discovery.WithObserver(&metricsObserver{metrics: metrics}),
	)

	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL)

	readinessChecks := observability.ReadinessChecks{
		AdaptersRegistered: func() bool { return len(adapters) > 0 },
	}
	if hc, ok := states.(observability.HealthChecker); ok {
		readinessChecks.StateStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
		API: &transport.API{
			Evidence:     evidenceStore,
			Orchestrator: orchestrator,
			Obligations:  obligationStore,
			RASCI:        rasciStore,
			Setup:        calc,
			Org:          orgStore,
			Registers:    registerStore,
			Discovery:    cfg.Discovery,
		},
		Health:  observability.HandleHealth(),
		Ready:   observability.HandleReady(readinessChecks),
		Metrics: observability.Handler(),
		Instrumentation: []func(http.Handler) http.Handler{
			observability.TracingMiddleware,
			metrics.MetricsMiddleware,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go runGaugeRefresher(bgCtx, metrics, evidenceStore, obligationStore, calc)

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("persistence", cfg.Persistence.Driver),
		zap.Int("adapters", len(adapters)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	bgCancel()

	if statesCloser != nil {
		statesCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildStateStore creates the snapshot store based on config.
func buildStateStore(ctx context.Context, cfg config.PersistenceConfig, logger *zap.Logger) (persistence.StateStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory state store")
		return persistence.NewMemoryStateStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("state store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("state store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("state store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("state store: ping: %w", err)
		}

		store := persistence.NewPgStateStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported state store driver: %q", cfg.Driver)
	}
}

// metricsObserver forwards per-adapter discovery outcomes to Prometheus.
type metricsObserver struct {
	metrics *observability.Metrics
}

func (o *metricsObserver) OnAdapterCompleted(source model.EvidenceSource, outcome discovery.AdapterOutcome) {
	o.metrics.RecordAdapterOutcome(
		string(source), outcome.Status,
		time.Duration(outcome.DurationMs)*time.Millisecond,
	)
	for i := 0; i < outcome.Artifacts; i++ {
		o.metrics.RecordArtifactMatched()
	}
}

// runGaugeRefresher periodically republishes the store-derived gauges.
func runGaugeRefresher(ctx context.Context, metrics *observability.Metrics, ev *evidence.Store, obs *obligations.Store, calc *setup.Calculator) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetEvidenceArtifacts(float64(ev.Len()))
			metrics.SetObligationsRegistered(float64(len(obs.List(ctx))))
			metrics.SetSetupCompletion(calc.Completion())
		}
	}
}
