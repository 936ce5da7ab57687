// Package session keeps the live sessions of the site in memory and writes
// every change through to a persisted Storage.
package session

import (
	"time"

	"huahuacuna/internal/models"
)

// Persisted keys, one pair per session id
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// Session is who is logged in and with what token
type Session struct {
	User  models.User
	Token string
	// ExpiresAt is the token's exp claim; zero when the token carries none
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry has passed at now
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthorizationHeaderValue formats the token for the wire
func (s *Session) AuthorizationHeaderValue() string {
	if s == nil || s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}
