package audithttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// CSV exports read the full log of a product, so they get their own budget.
const (
	exportLimit  = 10
	exportWindow = time.Minute
)

// MountRoutes registers the product log timeline and its CSV export.
// r is expected to be scoped to a single product, i.e. /products/{id}.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportLimit, exportWindow,
		httprate.WithKeyFuncs(RateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "export rate limit reached")
		}),
	)
	r.Get("/logs", h.handleHistory)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/logs/export.csv", h.handleExport)
	})
}

// RateLimitKey keys limits by authenticated actor, falling back to client IP.
func RateLimitKey(r *http.Request) (string, error) {
	if actor := strings.TrimSpace(shared.ActorFromContext(r.Context())); actor != "" {
		return "user:" + actor, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
