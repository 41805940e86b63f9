// Package session defines the authenticated user session.
package session

import (
	"strings"
	"time"
)

// Session holds the credentials of a logged-in user.
type Session struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Authenticated reports whether the session carries a usable token at now.
// A zero ExpiresAt never expires.
func (s Session) Authenticated(now time.Time) bool {
	if strings.TrimSpace(s.AccessToken) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Expired reports whether the session had an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
