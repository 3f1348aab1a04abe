// This file defines the session-loading middleware and the two auth gates:
// strict (redirect or 401 when unauthenticated) and permissive (auto-provision
// the shared demo identity).
package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/user/garage-go/apperror"
)

// LoadSession resolves the session cookie into an Identity on the request
// context. A missing, invalid, or expired cookie simply leaves the context
// without an identity; the gates below decide what that means per route.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionIDFromRequest(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			if !apperror.IsNotFound(err) {
				log.Printf("session lookup failed: %v", err)
			}
			// Stale cookie for a dead session; drop it.
			s.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		identity := &Identity{Session: session}
		if session.Authenticated() {
			user, err := s.users.FindByID(r.Context(), *session.UserID)
			if err == nil {
				identity.User = user
			} else if !apperror.IsNotFound(err) {
				log.Printf("user lookup for session %s failed: %v", session.ID, err)
			}
		}

		ctx := NewContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser is the strict gate: requests without an authenticated user are
// turned away with no further processing. HTML routes get a redirect to the
// entry page; /api routes get a 401 JSON error.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			if strings.HasPrefix(r.URL.Path, "/api") {
				WriteError(w, r, apperror.NewAuthError("authentication required", nil))
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithDemoUser is the permissive gate: requests without an authenticated user
// proceed as the reserved demo account, which is created on first use. The
// gate starts a real session and sets the cookie, so subsequent calls from the
// same client reuse it.
func (s *Service) WithDemoUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		demo, err := s.EnsureDemoUser(r.Context())
		if err != nil {
			log.Printf("demo user provisioning failed: %v", err)
			WriteError(w, r, apperror.NewInternalError("could not provision demo identity", err))
			return
		}

		// Replace any anonymous session rather than stacking a second one.
		if identity, ok := IdentityFromContext(r.Context()); ok && identity.Session != nil {
			if err := s.EndSession(r.Context(), identity.Session.ID); err != nil {
				log.Printf("failed to end anonymous session: %v", err)
			}
		}

		session, err := s.StartSession(r.Context(), demo.ID)
		if err != nil {
			log.Printf("demo session creation failed: %v", err)
			WriteError(w, r, apperror.NewInternalError("could not start demo session", err))
			return
		}
		if err := s.SetSessionCookie(w, session); err != nil {
			log.Printf("failed to set demo session cookie: %v", err)
		}

		ctx := NewContextWithIdentity(r.Context(), &Identity{Session: session, User: demo})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
