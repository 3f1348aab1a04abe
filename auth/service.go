// This file contains the business logic for accounts and sessions: the merged
// login-or-register flow, demo account provisioning for the permissive gate,
// and session lifecycle operations.
package auth

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/garage-go/apperror"
	"github.com/user/garage-go/config"
)

const (
	// DemoUsername is the reserved account auto-provisioned by the permissive
	// gate so the JSON API can be exercised without a login flow.
	DemoUsername = "demo"
	demoPassword = "demo"
)

// Service provides authentication and session services.
type Service struct {
	users    UserStore
	sessions SessionStore
	cfg      config.SessionConfig
}

// NewService creates a new auth Service with its stores injected.
func NewService(users UserStore, sessions SessionStore, cfg config.SessionConfig) *Service {
	return &Service{users: users, sessions: sessions, cfg: cfg}
}

// LoginOrRegister implements the merged register/login semantic: the first use
// of a username silently creates the account, later uses are password-checked
// logins. The returned bool reports whether a new account was created.
//
// Two simultaneous first-time logins with the same username race on the users
// unique constraint; the loser sees ErrUsernameTaken from the store and falls
// back to verifying against the winning row, so exactly one account exists
// either way.
func (s *Service) LoginOrRegister(ctx context.Context, username, password string) (*User, bool, error) {
	if username == "" || password == "" {
		return nil, false, apperror.NewValidationError("Username and password are required.", nil)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, false, err
		}
		created, regErr := s.register(ctx, username, password)
		if regErr == nil {
			return created, true, nil
		}
		if !errors.Is(regErr, ErrUsernameTaken) {
			return nil, false, regErr
		}
		// Lost the first-login race: re-fetch and verify as a login.
		user, err = s.users.FindByUsername(ctx, username)
		if err != nil {
			return nil, false, err
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, false, apperror.NewAuthError("Incorrect password", nil)
	}
	return user, false, nil
}

func (s *Service) register(ctx context.Context, username, password string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}
	return s.users.Create(ctx, username, string(hashed))
}

// EnsureDemoUser returns the reserved demo account, creating it with the fixed
// known password on first use. Idempotent: concurrent callers that lose the
// insert race reuse the existing row.
func (s *Service) EnsureDemoUser(ctx context.Context) (*User, error) {
	user, err := s.users.FindByUsername(ctx, DemoUsername)
	if err == nil {
		return user, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	user, err = s.register(ctx, DemoUsername, demoPassword)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, ErrUsernameTaken) {
		return s.users.FindByUsername(ctx, DemoUsername)
	}
	return nil, err
}

// StartSession creates a fresh authenticated session for the user. Callers
// that hold an older session should end it first; issuing a new id on login
// avoids session fixation.
func (s *Service) StartSession(ctx context.Context, userID int) (*Session, error) {
	return s.sessions.Create(ctx, &userID)
}

// StartAnonymousSession creates a session with no user attached. The login
// page uses it to carry a flash message across the redirect after a failed
// login.
func (s *Service) StartAnonymousSession(ctx context.Context) (*Session, error) {
	return s.sessions.Create(ctx, nil)
}

// EndSession destroys a session. A missing session is a no-op success.
func (s *Service) EndSession(ctx context.Context, id uuid.UUID) error {
	return s.sessions.Delete(ctx, id)
}

// SetFlash stores a one-shot message on the session.
func (s *Service) SetFlash(ctx context.Context, id uuid.UUID, message string) error {
	return s.sessions.SetFlash(ctx, id, message)
}

// TakeFlash consumes the session's flash message, if any. Errors are logged
// rather than propagated: a missing flash must never break page rendering.
func (s *Service) TakeFlash(ctx context.Context, id uuid.UUID) string {
	flash, err := s.sessions.TakeFlash(ctx, id)
	if err != nil {
		log.Printf("failed to take flash for session %s: %v", id, err)
		return ""
	}
	return flash
}

// CleanupExpiredSessions removes sessions past their inactivity window. Wired
// to a background ticker in main.
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}
