package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/cashier/internal/auth"
	"github.com/flexprice/cashier/internal/config"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Auth.Secret = "middleware-test-secret"
	cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		auth.HashAPIKey("live-key"): {Name: "ops", UserID: "user_ops", IsActive: true},
	}
	return cfg
}

func newAuthEngine(cfg *config.Configuration, userID *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()
	r := gin.New()
	r.Use(ErrorHandler(log), AuthenticateMiddleware(cfg, log))
	r.GET("/test", func(c *gin.Context) {
		*userID = types.GetUserID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticateAPIKey(t *testing.T) {
	var userID string
	r := newAuthEngine(newAuthConfig(), &userID)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("x-api-key", "live-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "user_ops", userID)
}

func TestAuthenticateBearerToken(t *testing.T) {
	cfg := newAuthConfig()
	token, err := auth.NewTokenProvider(cfg).GenerateToken("user_jwt", time.Now(), time.Hour)
	require.NoError(t, err)

	var userID string
	r := newAuthEngine(cfg, &userID)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "user_jwt", userID)
}

func TestAuthenticateRejects(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
	}{
		{name: "no_credentials"},
		{name: "unknown_api_key", header: map[string]string{"x-api-key": "guessed"}},
		{name: "not_bearer", header: map[string]string{types.HeaderAuthorization: "Basic dXNlcjpwYXNz"}},
		{name: "bad_token", header: map[string]string{types.HeaderAuthorization: "Bearer not.a.token"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			userID := "unset"
			r := newAuthEngine(newAuthConfig(), &userID)

			w, resp := serve(t, r, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, ierr.ErrCodeUnauthorized, resp.Error.Kind)
			assert.Equal(t, "unset", userID)
		})
	}
}
