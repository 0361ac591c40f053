package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/internal/service"
	"github.com/noah-isme/felling-licence-api/pkg/config"
)

func testRouter(t *testing.T) (*gin.Engine, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "router-secret", Expiry: time.Hour}, zap.NewNop())
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	return newRouter(cfg, &dependencies{tokens: tokens}, zap.NewNop()), tokens
}

func TestRouterRegistersCaseRoutes(t *testing.T) {
	r, _ := testRouter(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/applications/:id/admin-officer-review",
		"PUT /api/v1/applications/:id/admin-officer-review/agent-authority",
		"PUT /api/v1/applications/:id/admin-officer-review/mapping",
		"PUT /api/v1/applications/:id/admin-officer-review/constraints",
		"POST /api/v1/applications/:id/admin-officer-review/woodland-officer",
		"POST /api/v1/applications/:id/admin-officer-review/complete",
		"GET /api/v1/applications/:id/sub-statuses",
		"PUT /api/v1/applications/:id/woodland-officer-review/consultations",
		"POST /api/v1/applications/:id/woodland-officer-review/amendments",
		"POST /api/v1/applications/:id/woodland-officer-review/amendments/:amendmentId/complete",
		"POST /api/v1/applications/:id/public-register/publish",
		"POST /api/v1/applications/:id/public-register/remove",
		"GET /api/v1/applications/:id/external-access-links",
		"POST /api/v1/applications/:id/external-access-links",
		"POST /api/v1/external-access/verify",
		"POST /api/v1/applications/:id/withdraw",
		"GET /health",
		"GET /ready",
		"GET /metrics",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
	assert.False(t, registered["GET /docs/*any"], "docs must not be served in production")
}

func TestRouterRequiresToken(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/app-1/sub-statuses", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterEnforcesRoles(t *testing.T) {
	r, tokens := testRouter(t)
	token, _, err := tokens.IssueToken("applicant-1", models.RoleApplicant, "a@example.com", "Applicant")
	require.NoError(t, err)

	for _, path := range []string{
		"/api/v1/applications/app-1/admin-officer-review",
		"/api/v1/applications/app-1/sub-statuses",
		"/api/v1/applications/app-1/external-access-links",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
