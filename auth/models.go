// Package auth handles accounts, server-side sessions, and the gates that
// decide whether a request may proceed.
// This file defines the entities of the authentication domain.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
// The json:"-" tag on HashedPassword keeps the hash out of every JSON-facing
// projection, including the /api/me profile.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session is the server-side state behind a session cookie. The cookie only
// carries the opaque ID; everything else lives in the sessions table.
//
// UserID is nil for anonymous sessions, which exist so the login page can show
// a one-shot flash message before any account is attached.
type Session struct {
	ID        uuid.UUID
	UserID    *int
	Flash     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated reports whether the session carries a user reference.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != nil
}

// Identity is the request-scoped result of session lookup: the session record
// and, when the session is authenticated, the resolved user. Handlers receive
// it through the request context rather than reading ambient state.
type Identity struct {
	Session *Session
	User    *User // nil when the session is anonymous
}
