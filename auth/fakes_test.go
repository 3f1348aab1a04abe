package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/garage-go/apperror"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	mu      sync.Mutex
	nextID  int
	users   map[string]*User
	creates int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*User)}
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	u := *user
	return &u, nil
}

func (s *memUserStore) FindByID(_ context.Context, id int) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			u := *user
			return &u, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (s *memUserStore) Create(_ context.Context, username, hashedPassword string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, ErrUsernameTaken
	}
	s.nextID++
	s.creates++
	user := &User{ID: s.nextID, Username: username, HashedPassword: hashedPassword, CreatedAt: time.Now()}
	s.users[username] = user
	u := *user
	return &u, nil
}

// memSessionStore is an in-memory SessionStore for tests.
type memSessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uuid.UUID]*Session
}

func newMemSessionStore(ttl time.Duration) *memSessionStore {
	return &memSessionStore{ttl: ttl, sessions: make(map[uuid.UUID]*Session)}
}

func (s *memSessionStore) Create(_ context.Context, userID *int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl),
		CreatedAt: time.Now(),
	}
	s.sessions[session.ID] = session
	c := *session
	return &c, nil
}

func (s *memSessionStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, apperror.NewNotFoundError("session not found or expired", nil)
	}
	session.ExpiresAt = time.Now().Add(s.ttl)
	c := *session
	return &c, nil
}

func (s *memSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) DeleteExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if time.Now().After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memSessionStore) SetFlash(_ context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.Flash = message
	}
	return nil
}

func (s *memSessionStore) TakeFlash(_ context.Context, id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return "", nil
	}
	flash := session.Flash
	session.Flash = ""
	return flash, nil
}
