package middleware

import (
	"context"
	"strings"

	"github.com/flexprice/cashier/internal/auth"
	"github.com/flexprice/cashier/internal/config"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware authenticates requests based on either:
// 1. API key in the configured header (x-api-key by default)
// 2. JWT token in the Authorization header as a Bearer token
// It sets the user ID in the request context for created_by/updated_by
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	tokens := auth.NewTokenProvider(cfg)

	return func(c *gin.Context) {
		// First check for API key
		if apiKey := c.GetHeader(cfg.Auth.APIKey.Header); apiKey != "" {
			userID, valid := auth.ValidateAPIKey(cfg, apiKey)
			if !valid {
				logger.Debugw("invalid api key")
				abortUnauthorized(c, ierr.NewError("invalid api key").WithHint("Invalid API key"))
				return
			}
			setUser(c, userID)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, ierr.NewError("missing credentials").WithHint("Unauthorized"))
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			abortUnauthorized(c, ierr.NewError("malformed authorization header").
				WithHint("Invalid authorization header format"))
			return
		}

		claims, err := tokens.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		setUser(c, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, b *ierr.ErrorBuilder) {
	_ = c.Error(b.Mark(ierr.ErrUnauthorized))
	c.Abort()
}

func setUser(c *gin.Context, userID string) {
	ctx := context.WithValue(c.Request.Context(), types.CtxUserID, userID)
	c.Request = c.Request.WithContext(ctx)
}
