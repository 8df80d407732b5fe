package model

import (
	"context"
	"time"
)

// User is the identity attached to a session. Profile fields beyond the
// identifier and email are carried opaquely.
type User struct {
	ID      string
	Email   string
	Profile map[string]any
}

// Session is an authenticated identity issued by the identity service.
// A nil *Session means anonymous.
type Session struct {
	AccessToken string
	User        User
	ExpiresAt   time.Time
}

// Expired reports whether the session's token lifetime has passed.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// IdentityService is the remote identity provider consumed by the session
// store. Implementations must invoke every callback registered via
// OnSessionChange whenever the session changes, including changes caused by
// SignIn/SignOut on this same client.
type IdentityService interface {
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	OnSessionChange(fn func(*Session))
}
