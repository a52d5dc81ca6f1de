package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tonica-music/catalog/internal/ai"
	audithttp "github.com/tonica-music/catalog/internal/audit/http"
	"github.com/tonica-music/catalog/internal/importer"
	"github.com/tonica-music/catalog/internal/masterdata/categories"
	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/masterdata/suppliers"
	"github.com/tonica-music/catalog/internal/observability"
	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/rbac"
	"github.com/tonica-music/catalog/jobs"
)

// StatusReporter reports AI gateway readiness.
type StatusReporter interface {
	Status() ai.Status
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Auth guards every /api/v1 route. Nil leaves the API open.
	Auth func(http.Handler) http.Handler
	// RBAC gates writes, imports and audit reads by role. Nil skips the checks.
	RBAC *rbac.Middleware

	SuppliersHandler  *suppliers.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	AuditHandler      *audithttp.Handler
	ImportHandler     *importer.Handler
	JobHandler        *jobs.Handler
	AI                StatusReporter
	Database          Pinger
}

// NewRouter constructs the chi.Router with catalog defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(params.Database, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	requireAny := func(perms ...rbac.Permission) func(http.Handler) http.Handler {
		if params.RBAC == nil {
			return passthrough
		}
		return params.RBAC.RequireAny(perms...)
	}
	requireForWrites := func(perms ...rbac.Permission) func(http.Handler) http.Handler {
		if params.RBAC == nil {
			return passthrough
		}
		return params.RBAC.RequireForWrites(perms...)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.Auth != nil {
			r.Use(params.Auth)
		}

		r.Group(func(r chi.Router) {
			r.Use(Timeout(params.Config))
			r.Use(requireForWrites(rbac.PermCatalogWrite))
			if params.SuppliersHandler != nil {
				r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
			}
			if params.CategoriesHandler != nil {
				r.Route("/categories", params.CategoriesHandler.MountRoutes)
			}
			if params.ProductsHandler != nil {
				var extra []func(chi.Router)
				if params.AuditHandler != nil {
					extra = append(extra, func(r chi.Router) {
						r.Group(func(r chi.Router) {
							r.Use(requireAny(rbac.PermAuditRead))
							params.AuditHandler.MountRoutes(r)
						})
					})
				}
				r.Route("/products", func(r chi.Router) {
					params.ProductsHandler.MountRoutes(r, extra...)
				})
			}
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(requireAny(rbac.PermImportRun))
					params.JobHandler.MountRoutes(r)
				})
			}
			r.Get("/ai/status", func(w http.ResponseWriter, r *http.Request) {
				if params.AI == nil {
					httpx.JSON(w, http.StatusOK, ai.Status{Model: "not initialized", Timestamp: time.Now().UTC()})
					return
				}
				httpx.JSON(w, http.StatusOK, params.AI.Status())
			})
		})

		if params.ImportHandler != nil {
			r.Route("/import", func(r chi.Router) {
				r.Use(requireAny(rbac.PermImportRun))
				r.Use(ImportRateLimit(params.Config))
				params.ImportHandler.MountRoutes(r)
			})
		}
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }

func readiness(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "database unavailable")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
