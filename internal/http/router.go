// Package httpapi assembles the root router from the feature handlers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realtyvest/internal/platform/metrics"
	"realtyvest/pkg/platform/httputil"
	"realtyvest/pkg/platform/middleware/admin"
	"realtyvest/pkg/platform/middleware/auth"
	"realtyvest/pkg/platform/middleware/metadata"
	"realtyvest/pkg/platform/middleware/request"
	"realtyvest/pkg/platform/middleware/requesttime"
)

// requestTimeout bounds every request, including a blocking submission.
const requestTimeout = 60 * time.Second

// FeatureHandler registers routes for authenticated users.
type FeatureHandler interface {
	Register(r chi.Router)
}

type Config struct {
	Logger       *slog.Logger
	Metrics      *metrics.HTTP
	Gatherer     prometheus.Gatherer
	JWTValidator auth.JWTValidator
	AdminToken   string

	// Public routes need no token; Authenticated routes run behind
	// RequireAuth and Admin routes behind the admin token.
	Public        []func(r chi.Router)
	Authenticated []FeatureHandler
	Admin         []func(r chi.Router)

	// Ready reports dependency health for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(req.Context()); err != nil {
				cfg.Logger.WarnContext(req.Context(), "readiness check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		for _, register := range cfg.Public {
			register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(auth.RequireAuth(cfg.JWTValidator, cfg.Logger))
		for _, h := range cfg.Authenticated {
			h.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(admin.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		for _, register := range cfg.Admin {
			register(r)
		}
	})
	return r
}
