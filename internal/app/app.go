package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/meridiancrm/core/internal/auth"
	"github.com/meridiancrm/core/internal/config"
	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/httpserver"
	"github.com/meridiancrm/core/internal/platform"
	"github.com/meridiancrm/core/internal/telemetry"
	"github.com/meridiancrm/core/pkg/ai"
	"github.com/meridiancrm/core/pkg/credential"
	"github.com/meridiancrm/core/pkg/credential/providers"
	"github.com/meridiancrm/core/pkg/ingest"
	meridianslack "github.com/meridiancrm/core/pkg/slack"
	"github.com/meridiancrm/core/pkg/sync"
	"github.com/meridiancrm/core/pkg/tenant"
	"github.com/meridiancrm/core/pkg/topics"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the appropriate mode (api or worker).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting meridiancore",
		"mode", cfg.Mode,
		"listen", cfg.ListenAddr(),
	)

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunGlobalMigrations(cfg.DatabaseURL, cfg.MigrationsGlobalDir); err != nil {
		return fmt.Errorf("running global migrations: %w", err)
	}
	logger.Info("global migrations applied")

	metricsReg := telemetry.NewMetricsRegistry()

	deps, err := buildDeps(cfg, logger, pool, rdb)
	if err != nil {
		return fmt.Errorf("building dependencies: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, pool, rdb, metricsReg, deps)
	case "worker":
		return runWorker(ctx, cfg, logger, pool, deps)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// deps bundles every domain component wired from config, shared between API
// and worker mode so the two never drift in how they construct C1-C5.
type deps struct {
	credentialManager *credential.Manager
	adapters          map[credential.Kind]credential.ProviderAdapter
	orchestrator      *sync.Orchestrator
	verifiers         *ingest.Registry
	topicsEngine      *topics.Engine
	aiExecutor        *ai.Executor
	aiDispatcher      *ai.Dispatcher
}

func buildDeps(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client) (*deps, error) {
	// --- C1: Credential Lifecycle Manager ---
	sealer, err := credential.NewSealer(cfg.CredentialEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("building credential sealer: %w", err)
	}
	store := credential.NewStore(sealer)
	coordinator := credential.NewRefreshCoordinator(rdb, 30*time.Second)

	callbackURL := func(kind credential.Kind) string {
		return fmt.Sprintf("%s/api/v1/oauth/%s/callback", cfg.OAuthCallbackBaseURL, kind)
	}

	adapters := map[credential.Kind]credential.ProviderAdapter{}
	if cfg.FathomClientID != "" {
		adapters[credential.KindFathom] = providers.NewFathom(cfg.FathomClientID, cfg.FathomClientSecret, callbackURL(credential.KindFathom))
	}
	if cfg.GoogleClientID != "" {
		adapters[credential.KindGoogle] = providers.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, callbackURL(credential.KindGoogle))
	}
	if cfg.HubSpotClientID != "" {
		adapters[credential.KindHubSpot] = providers.NewHubSpot(cfg.HubSpotClientID, cfg.HubSpotClientSecret, callbackURL(credential.KindHubSpot))
	}
	if cfg.BullhornClientID != "" {
		adapters[credential.KindBullhorn] = providers.NewBullhorn(cfg.BullhornClientID, cfg.BullhornClientSecret, callbackURL(credential.KindBullhorn))
	}
	if cfg.SavvyCalClientID != "" {
		adapters[credential.KindSavvyCal] = providers.NewSavvyCal(cfg.SavvyCalClientID, cfg.SavvyCalClientSecret, callbackURL(credential.KindSavvyCal))
	}
	if cfg.SlackClientID != "" {
		adapters[credential.KindSlack] = providers.NewSlack(cfg.SlackClientID, cfg.SlackClientSecret, callbackURL(credential.KindSlack))
	}
	if cfg.StripeClientID != "" {
		adapters[credential.KindStripe] = providers.NewStripe(cfg.StripeClientID, cfg.StripeClientSecret, callbackURL(credential.KindStripe))
	}

	manager := credential.NewManager(store, coordinator, adapters, cfg.SafetyWindow(), cfg.ProactiveRefreshWindow(), logger)

	// --- C3: Event Ingestion & Reconciliation (signature verifiers) ---
	verifiers := ingest.NewRegistry()
	verifiers.Register(string(credential.KindSlack), ingest.SlackVerifier{
		SigningSecret: cfg.SlackSigningSecret,
		AllowInsecure: cfg.AllowInsecureSignatures,
	})
	for kind, secret := range map[credential.Kind]string{
		credential.KindFathom:   cfg.FathomClientSecret,
		credential.KindGoogle:   cfg.GoogleClientSecret,
		credential.KindHubSpot:  cfg.HubSpotClientSecret,
		credential.KindBullhorn: cfg.BullhornClientSecret,
		credential.KindSavvyCal: cfg.SavvyCalClientSecret,
		credential.KindStripe:   cfg.StripeClientSecret,
	} {
		verifiers.Register(string(kind), ingest.HMACVerifier{
			Secret:          secret,
			SignatureHeader: "X-Signature",
			TimestampHeader: "X-Request-Timestamp",
			AllowInsecure:   cfg.AllowInsecureSignatures,
		})
	}

	// --- C2: Sync Orchestrator ---
	// Per-integration REST dispatchers are out of scope (spec §1); the
	// fleet fanout and webhook/ledger plumbing below still runs against
	// whatever dispatchers a deployment registers.
	dispatchers := map[credential.Kind]sync.Dispatcher{}
	orchestrator := sync.NewOrchestrator(pool, manager, dispatchers, cfg.CatchUpThreshold(), cfg.CatchUpWindow(), logger)

	// --- C5: Topic Aggregation Engine ---
	topicsEngine := topics.NewEngine(cfg.BatchSizeTopics, logger)

	// --- C4: AI Recommendation Pipeline actuation ---
	// Notifier no-ops when SlackBotToken is unset, so send_slack_message
	// suggestions still route and record feedback, just without delivery.
	aiExecutor := ai.NewExecutor(meridianslack.NewNotifier(cfg.SlackBotToken, logger))
	aiDispatcher := ai.NewDefaultDispatcher()

	return &deps{
		credentialManager: manager,
		adapters:          adapters,
		orchestrator:      orchestrator,
		verifiers:         verifiers,
		topicsEngine:      topicsEngine,
		aiExecutor:        aiExecutor,
		aiDispatcher:      aiDispatcher,
	}, nil
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, deps *deps) error {
	srv := httpserver.NewServer(cfg, logger, pool, rdb, metricsReg)

	credentialHandler := credential.NewHandler(deps.credentialManager, deps.adapters, cfg.OAuthFrontendRedirectURL, logger)
	srv.APIRouter.Mount("/oauth", credentialHandler.Routes())
	srv.APIRouter.Route("/oauth-refresh", func(r chi.Router) {
		r.Use(auth.RequireMethod(auth.MethodCron, auth.MethodService))
		r.Mount("/", credentialHandler.RefreshRoutes())
	})

	aiHandler := ai.NewHandler(deps.aiExecutor, deps.aiDispatcher, logger)
	srv.APIRouter.Mount("/ai", aiHandler.Routes())

	topicsHandler := topics.NewHandler(deps.topicsEngine, logger)
	srv.APIRouter.Mount("/topics", topicsHandler.Routes())

	syncHandler := sync.NewHandler(deps.orchestrator, deps.verifiers, logger)
	srv.InternalRouter.Mount("/sync", syncHandler.TickRoutes())
	srv.WebhookRouter.Mount("/sync", syncHandler.WebhookRoutes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// runWorker drives the in-process fallback loops the spec's cron-as-HTTP
// design still needs for deployments with no external scheduler: C1's
// proactive credential refresh, C2's tick fallback and sync-retry drain,
// and C5's queue-drain sweep. The refresh and drain loops fan out across
// every tenant via tenant.WithConn, tolerating one tenant's failure without
// aborting the sweep (spec §9 batch propagation policy); the tick fallback
// runs fleet-wide, since Orchestrator.Tick lists tenants itself.
func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, deps *deps) error {
	logger.Info("worker started")

	proactiveRefreshInterval, err := time.ParseDuration(cfg.ProactiveRefreshInterval)
	if err != nil {
		return fmt.Errorf("parsing proactive refresh interval %q: %w", cfg.ProactiveRefreshInterval, err)
	}
	topicsDrainInterval, err := time.ParseDuration(cfg.TopicsQueueDrainInterval)
	if err != nil {
		return fmt.Errorf("parsing topics queue drain interval %q: %w", cfg.TopicsQueueDrainInterval, err)
	}
	syncRetryDrainInterval, err := time.ParseDuration(cfg.SyncRetryDrainInterval)
	if err != nil {
		return fmt.Errorf("parsing sync retry drain interval %q: %w", cfg.SyncRetryDrainInterval, err)
	}

	go runTenantLoop(ctx, pool, logger, proactiveRefreshInterval, "credential proactive refresh", func(ctx context.Context, q *db.Queries, schema string) error {
		return deps.credentialManager.RefreshProactively(ctx, q, schema)
	})

	go runFleetLoop(ctx, logger, proactiveRefreshInterval, "sync tick fallback", func(ctx context.Context) error {
		for kind := range deps.adapters {
			if _, err := deps.orchestrator.Tick(ctx, kind); err != nil {
				return fmt.Errorf("integration %s: %w", kind, err)
			}
		}
		return nil
	})

	go runTenantLoop(ctx, pool, logger, topicsDrainInterval, "topics queue drain", func(ctx context.Context, q *db.Queries, schema string) error {
		_, err := deps.topicsEngine.RunIncremental(ctx, q)
		return err
	})

	go runTenantLoop(ctx, pool, logger, syncRetryDrainInterval, "sync retry drain", func(ctx context.Context, q *db.Queries, schema string) error {
		_, err := deps.orchestrator.DrainRetries(ctx, q, sync.RetryBatchSize)
		return err
	})

	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}

// runFleetLoop runs fn (already fleet-wide, e.g. Orchestrator.Tick which
// lists tenants itself) on a ticker, logging rather than aborting on error.
func runFleetLoop(ctx context.Context, logger *slog.Logger, interval time.Duration, name string, fn func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		if err := fn(ctx); err != nil {
			logger.Error("fleet worker loop failed", "loop", name, "error", err)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// runTenantLoop runs fn once per tenant on every tick, logging (not
// aborting on) a single tenant's failure.
func runTenantLoop(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, interval time.Duration, name string, fn func(ctx context.Context, q *db.Queries, schema string) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		tenants, err := db.New(pool).ListTenants(ctx)
		if err != nil {
			logger.Error("listing tenants for worker loop", "loop", name, "error", err)
			return
		}
		for _, t := range tenants {
			schema := tenant.SchemaName(t.Slug)
			err := tenant.WithConn(ctx, pool, schema, func(ctx context.Context, conn *pgxpool.Conn) error {
				return fn(ctx, db.New(conn), schema)
			})
			if err != nil {
				logger.Error("worker loop failed for tenant", "loop", name, "tenant", t.Slug, "error", err)
			}
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
