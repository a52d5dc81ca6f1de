package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	audithttp "github.com/tonica-music/catalog/internal/audit/http"
	"github.com/tonica-music/catalog/internal/observability"
	"github.com/tonica-music/catalog/internal/platform/httpx"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the catalog middleware chain. Request timeouts are
// applied per route group since imports outlive ordinary requests.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.Config == nil || !cfg.Config.IsProduction(),
	})

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(cfg.Logger),
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					httpx.Problem(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), "")
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// Timeout bounds ordinary API requests.
func Timeout(cfg *Config) func(http.Handler) http.Handler {
	timeout := 30 * time.Second
	if cfg != nil && cfg.AppRequestTimeout > 0 {
		timeout = cfg.AppRequestTimeout
	}
	return middleware.Timeout(timeout)
}

// ImportRateLimit caps import submissions per authenticated caller.
func ImportRateLimit(cfg *Config) func(http.Handler) http.Handler {
	limit := 10
	if cfg != nil && cfg.ImportRateLimit > 0 {
		limit = cfg.ImportRateLimit
	}
	return httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(audithttp.RateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "import rate limit reached")
		}),
	)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
