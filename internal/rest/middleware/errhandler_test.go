package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(logger.NewNopLogger()))
	r.GET("/test", handler)
	return r
}

func serve(t *testing.T, r *gin.Engine, header map[string]string) (*httptest.ResponseRecorder, ierr.ErrorResponse) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp ierr.ErrorResponse
	if w.Code >= http.StatusBadRequest {
		require.NoError(t, codec.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestErrorHandlerGatewayFailure(t *testing.T) {
	r := newTestEngine(func(c *gin.Context) {
		c.Error(gateway.NewFailure("E00040", "The record cannot be found."))
	})

	w, resp := serve(t, r, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, ierr.ErrCodeGatewayFailure, resp.Error.Kind)
	assert.Equal(t, "E00040", resp.Error.GatewayCode)
	assert.Equal(t, "The record cannot be found.", resp.Error.GatewayMessage)
	assert.Equal(t, "E00040", resp.Error.Details["gateway_code"])
	assert.Contains(t, resp.Error.Display, "E00040")
}

func TestErrorHandlerHintAndDetails(t *testing.T) {
	r := newTestEngine(func(c *gin.Context) {
		c.Error(ierr.NewError("account acct_1 not found").
			WithHint("Account not found").
			WithReportableDetails(map[string]any{"account_id": "acct_1"}).
			Mark(ierr.ErrNotFound))
	})

	w, resp := serve(t, r, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Account not found", resp.Error.Display)
	assert.Equal(t, "acct_1", resp.Error.Details["account_id"])
	assert.Empty(t, resp.Error.GatewayCode)
}

func TestErrorHandlerUnmarkedError(t *testing.T) {
	r := newTestEngine(func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w, resp := serve(t, r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Display)
	assert.Equal(t, ierr.ErrCodeSystemError, resp.Error.Kind)
}

func TestRequestID(t *testing.T) {
	var requestID string
	r := newTestEngine(func(c *gin.Context) {
		requestID = types.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w, _ := serve(t, r, map[string]string{types.HeaderRequestID: "req-1"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "req-1", w.Header().Get(types.HeaderRequestID))

	_, _ = serve(t, r, nil)
	assert.NotEmpty(t, requestID)
	assert.NotEqual(t, "req-1", requestID)
}
