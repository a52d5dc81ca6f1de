package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// Middleware rejects requests without a valid bearer token and stores the
// token subject and role on the request context.
func Middleware(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.Debug("rejected bearer token", slog.Any("error", err), "path", r.URL.Path)
				unauthorized(w, "invalid or expired token")
				return
			}
			ctx := shared.ContextWithActor(r.Context(), claims.Subject)
			ctx = shared.ContextWithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="catalog"`)
	httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), detail)
}
