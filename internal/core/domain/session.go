package domain

import "time"

// Identity is the identity provider's view of an authenticated user.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Session is a secret token bound to one identity. It is created on
// sign-in/sign-up, destroyed on logout, and otherwise opaque: callers
// pass the Secret explicitly into every identity-dependent call.
type Session struct {
	UserID    string
	Secret    string
	ExpiresAt time.Time
}
