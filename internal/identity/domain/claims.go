package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed_token")

// missingExpiry is how far in the past a token without exp is placed.
const missingExpiry = 24 * time.Hour

// Claims are the fields read from an access token payload.
type Claims struct {
	Username  string
	Roles     []string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// DecodeClaims reads the token payload without verifying the signature; the
// billing service that issued the token is trusted. A token without exp is
// treated as already expired.
func DecodeClaims(token string, now time.Time) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	expiresAt := now.Add(-missingExpiry)
	if tc.ExpiresAt != nil {
		expiresAt = tc.ExpiresAt.Time.UTC()
	}
	return Claims{
		Username:  tc.Username,
		Roles:     tc.Roles,
		ExpiresAt: expiresAt,
	}, nil
}
