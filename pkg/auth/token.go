package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shoplane/shoplane-backend/pkg/config"
)

// Claims carries the caller identity the gateway stamps into access tokens.
// Token issuance lives with the user service; this package only verifies.
type Claims struct {
	CustomerID string `json:"customer_id"`
	jwt.RegisteredClaims
}

var errEmptyToken = errors.New("token is empty")

// ParseAccessToken verifies an HS256 bearer token and returns its claims.
func ParseAccessToken(cfg config.JWTConfig, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errEmptyToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("access token is not valid")
	}
	if strings.TrimSpace(claims.CustomerID) == "" {
		return nil, errors.New("access token missing customer id")
	}
	return claims, nil
}
