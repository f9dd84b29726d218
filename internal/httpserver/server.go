package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/meridiancrm/core/internal/auth"
	"github.com/meridiancrm/core/internal/config"
	"github.com/meridiancrm/core/internal/version"
	"github.com/meridiancrm/core/pkg/tenant"
)

// Server holds the HTTP server dependencies.
type Server struct {
	Router         *chi.Mux
	APIRouter      chi.Router // authenticated, tenant-scoped /api/v1 sub-router
	InternalRouter chi.Router // cron/service-role-gated, cross-tenant /internal sub-router
	WebhookRouter  chi.Router // unauthenticated, cross-tenant /webhooks sub-router
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Metrics        *prometheus.Registry
	startedAt      time.Time
}

// NewServer creates an HTTP server with middleware and health/metrics
// endpoints. Domain handlers are mounted on APIRouter after calling
// NewServer.
func NewServer(cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		DB:        db,
		Redis:     rdb,
		Metrics:   metricsReg,
		startedAt: time.Now(),
	}

	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Tenant-Slug", "X-Cron-Secret"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Get("/readyz", s.handleReadyz)
	s.Router.Get("/status", s.HandleStatus)

	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	s.Router.Route("/api/v1", func(r chi.Router) {
		// 1. Resolve tenant and set search_path. Runs first because the
		// end-user auth tier looks up API keys against the tenant-scoped
		// connection this middleware places in the request context.
		r.Use(tenant.Middleware(db, tenant.HeaderResolver{}, logger))

		// 2. Authenticate: cron secret → service-role bearer → end-user
		// bearer (hashed API key).
		r.Use(auth.Middleware(cfg.CronSecret, cfg.ServiceRoleTokenHash, logger))
		r.Use(auth.RequireAuth)

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			t := tenant.FromContext(r.Context())
			id := auth.FromContext(r.Context())
			RespondOK(w, map[string]string{
				"tenant": t.Slug,
				"schema": t.Schema,
				"method": id.Method,
			})
		})

		s.APIRouter = r
	})

	// Cross-tenant routes: no single resolved tenant exists up front, so
	// these are mounted outside /api/v1 and gate on only the
	// cron-secret/service-role tiers (spec §6.1).
	s.Router.Route("/internal", func(r chi.Router) {
		r.Use(auth.RequireCronOrService(cfg.CronSecret, cfg.ServiceRoleTokenHash, logger))
		s.InternalRouter = r
	})

	// Inbound provider webhooks authenticate via their own payload
	// signature (spec §4.3), not a bearer token, so no auth middleware runs
	// here at the router level.
	s.Router.Route("/webhooks", func(r chi.Router) {
		s.WebhookRouter = r
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.DB.Ping(ctx); err != nil {
		s.Logger.Error("readiness check: database ping failed", "error", err)
		RespondError(w, http.StatusServiceUnavailable, "unavailable", "database not ready")
		return
	}

	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.Logger.Error("readiness check: redis ping failed", "error", err)
		RespondError(w, http.StatusServiceUnavailable, "unavailable", "redis not ready")
		return
	}

	Respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

// statusResponse is the JSON shape returned by HandleStatus.
type statusResponse struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	CommitSHA       string  `json:"commit_sha"`
	Uptime          string  `json:"uptime"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	Database        string  `json:"database"`
	DatabaseLatency float64 `json:"database_latency_ms"`
	Redis           string  `json:"redis"`
	RedisLatency    float64 `json:"redis_latency_ms"`
}

// HandleStatus returns system health information: DB/Redis connectivity and
// process uptime. Unlike the tenant-scoped /api/v1 routes, this is a
// global, unauthenticated diagnostic endpoint.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uptime := time.Since(s.startedAt)

	resp := statusResponse{
		Version:       version.Version,
		CommitSHA:     version.Commit,
		Uptime:        uptime.Truncate(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
	}

	dbStart := time.Now()
	if err := s.DB.Ping(ctx); err != nil {
		s.Logger.Error("status check: database ping failed", "error", err)
		resp.Database = "error"
	} else {
		resp.Database = "ok"
	}
	resp.DatabaseLatency = time.Since(dbStart).Seconds() * 1000

	redisStart := time.Now()
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.Logger.Error("status check: redis ping failed", "error", err)
		resp.Redis = "error"
	} else {
		resp.Redis = "ok"
	}
	resp.RedisLatency = time.Since(redisStart).Seconds() * 1000

	if resp.Database == "ok" && resp.Redis == "ok" {
		resp.Status = "ok"
	} else {
		resp.Status = "degraded"
	}

	Respond(w, http.StatusOK, resp)
}
