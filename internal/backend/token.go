package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshThreshold is how close to expiry a token must be before
// RefreshAccessTokenIfNeeded actually refreshes it.
const refreshThreshold = 24 * time.Hour

// tokenExpiry extracts the expiry claim from an access token without
// verifying its signature. The token is only inspected locally to decide
// when to refresh; the cloud API remains the authority on validity.
func tokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()

	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("backend: parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}

	return claims.ExpiresAt.Time, nil
}
