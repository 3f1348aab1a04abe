// This file defines the persistence interfaces for accounts and sessions,
// plus their pgx-backed implementations. Services depend on the interfaces so
// tests can substitute in-memory fakes.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/garage-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ErrUsernameTaken is returned by UserStore.Create when the username already
// exists. The service treats it as the losing side of a first-login race and
// falls back to password verification.
var ErrUsernameTaken = errors.New("username already taken")

// UserStore persists accounts.
type UserStore interface {
	// FindByUsername returns the user or a NotFoundError.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByID returns the user or a NotFoundError.
	FindByID(ctx context.Context, id int) (*User, error)
	// Create inserts a new account. Returns ErrUsernameTaken if the username
	// is already claimed.
	Create(ctx context.Context, username, hashedPassword string) (*User, error)
}

// SessionStore persists sessions keyed by an opaque identifier.
type SessionStore interface {
	// Create inserts a new session. userID may be nil for an anonymous session.
	Create(ctx context.Context, userID *int) (*Session, error)
	// Get returns a live session and pushes its expiry forward by the
	// configured inactivity window. Expired or unknown ids yield a
	// NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// Delete removes a session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes all sessions past their expiry.
	DeleteExpired(ctx context.Context) error
	// SetFlash stores a one-shot message on the session.
	SetFlash(ctx context.Context, id uuid.UUID, message string) error
	// TakeFlash returns the session's flash message and clears it atomically.
	TakeFlash(ctx context.Context, id uuid.UUID) (string, error)
}

// PGUserStore is the PostgreSQL-backed UserStore.
type PGUserStore struct {
	db *pgxpool.Pool
}

// NewPGUserStore creates a PGUserStore on the given pool.
func NewPGUserStore(db *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `SELECT id, username, hashed_password, created_at FROM users WHERE username = $1`
	err := s.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by username", err)
	}
	return &user, nil
}

func (s *PGUserStore) FindByID(ctx context.Context, id int) (*User, error) {
	var user User
	query := `SELECT id, username, hashed_password, created_at FROM users WHERE id = $1`
	err := s.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by id", err)
	}
	return &user, nil
}

func (s *PGUserStore) Create(ctx context.Context, username, hashedPassword string) (*User, error) {
	user := &User{Username: username, HashedPassword: hashedPassword}
	query := `INSERT INTO users (username, hashed_password)
              VALUES ($1, $2)
              RETURNING id, created_at`
	err := s.db.QueryRow(ctx, query, username, hashedPassword).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// PGSessionStore is the PostgreSQL-backed SessionStore. The TTL is the
// inactivity window: every Get renews the session for another full window.
type PGSessionStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

// NewPGSessionStore creates a PGSessionStore on the given pool.
func NewPGSessionStore(db *pgxpool.Pool, ttl time.Duration) *PGSessionStore {
	return &PGSessionStore{db: db, ttl: ttl}
}

func (s *PGSessionStore) Create(ctx context.Context, userID *int) (*Session, error) {
	session := &Session{ID: uuid.New(), UserID: userID}
	query := `INSERT INTO sessions (id, user_id, expires_at)
              VALUES ($1, $2, now() + $3)
              RETURNING flash, expires_at, created_at`
	err := s.db.QueryRow(ctx, query, session.ID, userID, s.ttl).
		Scan(&session.Flash, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create session", err)
	}
	return session, nil
}

func (s *PGSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	// Lookup and sliding renewal in one statement: only live sessions match,
	// and matching pushes expires_at forward by the full window.
	session := &Session{ID: id}
	query := `UPDATE sessions
              SET expires_at = now() + $2
              WHERE id = $1 AND expires_at > now()
              RETURNING user_id, flash, expires_at, created_at`
	err := s.db.QueryRow(ctx, query, id, s.ttl).
		Scan(&session.UserID, &session.Flash, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("session not found or expired", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get session", err)
	}
	return session, nil
}

func (s *PGSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete session", err)
	}
	return nil
}

func (s *PGSessionStore) DeleteExpired(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`); err != nil {
		return apperror.NewDatabaseError("failed to delete expired sessions", err)
	}
	return nil
}

func (s *PGSessionStore) SetFlash(ctx context.Context, id uuid.UUID, message string) error {
	if _, err := s.db.Exec(ctx, `UPDATE sessions SET flash = $2 WHERE id = $1`, id, message); err != nil {
		return apperror.NewDatabaseError("failed to set flash message", err)
	}
	return nil
}

func (s *PGSessionStore) TakeFlash(ctx context.Context, id uuid.UUID) (string, error) {
	// Read-and-clear in one statement so the message is consumed exactly once.
	var flash string
	query := `UPDATE sessions s
              SET flash = ''
              FROM (SELECT id, flash FROM sessions WHERE id = $1 FOR UPDATE) old
              WHERE s.id = old.id
              RETURNING old.flash`
	err := s.db.QueryRow(ctx, query, id).Scan(&flash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperror.NewDatabaseError("failed to take flash message", err)
	}
	return flash, nil
}
