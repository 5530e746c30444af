package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/karimhaddad/clubcore/internal/alerts"
	"github.com/karimhaddad/clubcore/internal/api/handlers"
	"github.com/karimhaddad/clubcore/internal/api/middleware"
	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/authz"
	"github.com/karimhaddad/clubcore/internal/cache"
	"github.com/karimhaddad/clubcore/internal/config"
	"github.com/karimhaddad/clubcore/internal/impersonation"
	"github.com/karimhaddad/clubcore/internal/members"
	"github.com/karimhaddad/clubcore/internal/platform"
	"github.com/karimhaddad/clubcore/internal/queue"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Services. Construction order follows the dependency chain: the alert
	// ledger feeds login anomaly detection, the impersonation session store
	// feeds token validation.
	c := cache.New(rt.redis)
	issuer := auth.NewIssuer(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL)
	users := auth.NewPostgresUserStore(rt.db)
	auditSvc := audit.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	alertSvc := alerts.NewService(alerts.NewPostgresStore(rt.db), queueClient, auditSvc)
	authSvc := auth.NewService(users, issuer, c, alertSvc)
	impSvc := impersonation.NewService(
		impersonation.NewRedisSessionStore(c), users, issuer, auditSvc, rt.cfg.Auth.ImpersonationTTL)
	tenantSvc := tenant.NewService(rt.db)
	platformSvc := platform.NewService(rt.db, c)
	memberSvc := members.NewService(members.NewPostgresStore(rt.db))

	authn := auth.NewAuthenticator(issuer, impSvc)
	resolver := tenant.NewResolver(rt.cfg.Auth.TenantHeader)
	enf := authz.NewEnforcer(authz.NewRegistry(), auditSvc)

	// Global middleware. Authentication and tenant resolution run on every
	// route in that order; the resolver trusts the principal it sees.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(authn.Authenticate)
	r.Use(resolver.Resolve)

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Every request made under an active impersonation session leaves a
	// trail entry attributed to both identities, regardless of whether the
	// handler audits its own events.
	r.Use(middleware.ImpersonationAudit(auditSvc))

	// Ops endpoints, exempt from maintenance mode.
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authH := handlers.NewAuthHandler(authSvc, auditSvc)
	memberH := handlers.NewMemberHandler(memberSvc)
	alertH := handlers.NewAlertHandler(alertSvc, auditSvc)
	impH := handlers.NewImpersonationHandler(impSvc)
	platformH := handlers.NewPlatformHandler(platformSvc, tenantSvc, auditSvc)
	policyH := handlers.NewPolicyHandler(enf.Registry())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Maintenance(platformSvc))

		// Login routes are the only unauthenticated surface.
		r.Post("/auth/login", authH.LoginFacility)
		r.Post("/auth/platform/login", authH.LoginPlatform)
		r.With(enf.Require("auth.me", authz.Policy{})).Get("/auth/me", authH.Me)

		r.Route("/members", func(r chi.Router) {
			r.With(enf.Require("members.list", authz.Policy{})).Get("/", memberH.List)
			r.With(enf.Require("members.create", authz.Policy{})).Post("/", memberH.Create)
			r.With(enf.Require("members.get", authz.Policy{})).Get("/{id}", memberH.Get)
			r.With(enf.Require("members.update", authz.Policy{})).Patch("/{id}", memberH.Update)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.With(enf.Require("alerts.list", authz.Policy{})).Get("/", alertH.List)
			r.With(enf.Require("alerts.acknowledge", authz.Policy{})).Post("/{id}/acknowledge", alertH.Acknowledge)
			r.With(enf.Require("alerts.dismiss", authz.Policy{})).Post("/{id}/dismiss", alertH.Dismiss)
		})

		r.Route("/impersonation", func(r chi.Router) {
			r.With(enf.Require("impersonation.start", authz.Policy{
				Platform:    true,
				Permissions: []authz.Permission{authz.PermImpersonateUser},
			})).Post("/start", impH.Start)
			// Stop runs under the impersonation token itself, a facility
			// credential; the service verifies the session.
			r.With(enf.Require("impersonation.stop", authz.Policy{})).Post("/stop", impH.Stop)
		})

		r.Route("/platform", func(r chi.Router) {
			enf.RequireGroup("platform", authz.Policy{Platform: true})

			r.With(enf.Require("platform.config.view", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermConfigView},
			})).Get("/config", platformH.Settings)
			r.With(enf.Require("platform.config.edit", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermConfigEdit},
			})).Put("/config/{key}", platformH.SetSetting)

			r.With(enf.Require("platform.feature-flags.view", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermConfigView},
			})).Get("/feature-flags", platformH.FeatureFlags)
			r.With(enf.Require("platform.feature-flags.manage", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermFeatureFlagManage},
			})).Put("/feature-flags/{key}", platformH.SetFeatureFlag)

			r.With(enf.Require("platform.maintenance.view", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermConfigView},
			})).Get("/maintenance", platformH.Maintenance)
			r.With(enf.Require("platform.maintenance.manage", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermMaintenanceManage},
			})).Put("/maintenance", platformH.SetMaintenance)

			r.With(enf.Require("platform.tenants.list", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermTenantsView},
			})).Get("/tenants", platformH.ListTenants)
			r.With(enf.Require("platform.tenants.create", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermTenantsManage},
			})).Post("/tenants", platformH.CreateTenant)
			r.With(enf.Require("platform.tenants.get", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermTenantsView},
			})).Get("/tenants/{id}", platformH.GetTenant)
			r.With(enf.Require("platform.tenants.status", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermTenantsManage},
			})).Put("/tenants/{id}/status", platformH.SetTenantStatus)

			r.With(enf.Require("platform.audit-logs.view", authz.Policy{
				Platform: true, Permissions: []authz.Permission{authz.PermAuditView},
			})).Get("/audit-logs", platformH.AuditLogs)

			r.With(enf.Require("platform.access-policies.view", authz.Policy{
				Platform: true,
			})).Get("/access-policies", policyH.List)
		})
	})

	return r
}
