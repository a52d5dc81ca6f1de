package rbac

import (
	"log/slog"
	"net/http"

	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// Middleware wires role checks for HTTP handlers. It expects the auth
// middleware to have stored the caller role in the request context.
type Middleware struct {
	Policy *Policy
	Logger *slog.Logger
}

// RequireAny ensures the caller role grants at least one of perms.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allowed(r, perms) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireForWrites applies RequireAny to unsafe methods and lets reads through.
func (m Middleware) RequireForWrites(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if !m.allowed(r, perms) {
					forbidden(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) allowed(r *http.Request, perms []Permission) bool {
	role := shared.RoleFromContext(r.Context())
	if m.Policy.Allows(role, perms...) {
		return true
	}
	if m.Logger != nil {
		m.Logger.Info("rbac denied",
			slog.String("actor", shared.ActorFromContext(r.Context())),
			slog.String("role", role),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
	}
	return false
}

func forbidden(w http.ResponseWriter) {
	httpx.Problem(w, http.StatusForbidden, http.StatusText(http.StatusForbidden), "role does not grant this operation")
}
