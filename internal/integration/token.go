package integration

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenMinter issues the short-lived bearer tokens downstream systems
// expect alongside the shared-secret header. One token is minted per run
// and passed to every call in it.
type TokenMinter struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenMinter(signingKey []byte, issuer string, ttl time.Duration) *TokenMinter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenMinter{signingKey: signingKey, issuer: issuer, ttl: ttl}
}

// Mint signs an HS256 token identifying the acting system user.
func (m *TokenMinter) Mint(systemUserID string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": m.issuer,
		"sub": systemUserID,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("mint integration token: %w", err)
	}
	return signed, nil
}
