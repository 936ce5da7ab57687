package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned for tokens that are not decodable JWTs
	ErrMalformedToken = errors.New("malformed token")
	// ErrNoExpiry is returned for JWTs without an exp claim
	ErrNoExpiry = errors.New("token has no expiry")
	// ErrTokenExpired is returned for tokens whose exp has passed
	ErrTokenExpired = errors.New("token expired")
)

// DecodeExpiry reads the exp claim of a JWT without verifying its signature.
// The backend verifies tokens; the site only needs to know when to stop
// attaching one.
func DecodeExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
