package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/cashier/internal/config"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/golang-jwt/jwt/v4"
)

// Claims identifies the caller of a bearer token
type Claims struct {
	UserID string
}

// TokenProvider issues and validates HS256 bearer tokens
type TokenProvider struct {
	secret []byte
}

func NewTokenProvider(cfg *config.Configuration) *TokenProvider {
	return &TokenProvider{secret: []byte(cfg.Auth.Secret)}
}

func (p *TokenProvider) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if len(p.secret) == 0 {
		return nil, ierr.NewError("bearer tokens are disabled").
			WithHint("Bearer tokens are not accepted, use an API key").
			Mark(ierr.ErrUnauthorized)
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrUnauthorized)
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid token").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthorized)
	}

	return &Claims{UserID: userID}, nil
}

// GenerateToken signs a token for userID that expires after ttl
func (p *TokenProvider) GenerateToken(userID string, now time.Time, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", ierr.NewError("auth secret is not configured").
			WithHint("Set auth.secret to issue tokens").
			Mark(ierr.ErrConfiguration)
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
