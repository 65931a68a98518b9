package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "realtyvest/internal/jwt_token"
	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/httputil"
	"realtyvest/pkg/requestcontext"
	"realtyvest/pkg/testutil"
)

type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"user_id": requestcontext.UserID(r.Context()).String()})
	})
}

func newTestRouter(t *testing.T) (http.Handler, *jwttoken.JWTService) {
	t.Helper()
	jwtService := jwttoken.NewJWTService("test-key", "realtyvest-auth", "realtyvest-api")
	reg := prometheus.NewRegistry()
	router := NewRouter(Config{
		Logger:       logger.Discard(),
		Metrics:      metrics.NewHTTP(reg),
		Gatherer:     reg,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:   "reviewer-secret",
		Public: []func(r chi.Router){func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		}},
		Authenticated: []FeatureHandler{whoami{}},
		Admin: []func(r chi.Router){func(r chi.Router) {
			r.Get("/admin/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		}},
	})
	return router, jwtService
}

func TestRouter(t *testing.T) {
	router, jwtService := newTestRouter(t)

	t.Run("health and request id", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, http.StatusOK, testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	})

	t.Run("public routes need no token", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("authenticated routes require a bearer token", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/me", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

		userID := id.UserID(uuid.New())
		token, err := jwtService.GenerateAccessToken(userID, time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr = testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"user_id":"`+userID.String()+`"}`, rr.Body.String())
	})

	t.Run("admin routes require the admin token", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.Header.Set("X-Admin-Token", "reviewer-secret")
		assert.Equal(t, http.StatusNoContent, testutil.DoRequest(router, req).Code)
	})

	t.Run("metrics are exposed by route pattern", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `realtyvest_http_requests_total{method="GET",route="/healthz",status="200"}`)
	})
}
