// This file handles the HTTP surface of authentication: the entry page, the
// merged login/register endpoint, and logout.
package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/user/garage-go/apperror"
	"github.com/user/garage-go/web"
)

// Handlers wraps the auth Service to provide HTTP handlers.
type Handlers struct {
	service  *Service
	renderer *web.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service, renderer *web.Renderer) *Handlers {
	return &Handlers{service: service, renderer: renderer}
}

// loginPageData is the template context for the entry page.
type loginPageData struct {
	Flash string
}

// HandleIndex renders the login page, or redirects straight to the dashboard
// when the request already carries an authenticated session.
func (h *Handlers) HandleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}

		data := loginPageData{}
		if identity, ok := IdentityFromContext(r.Context()); ok && identity.Session != nil {
			data.Flash = h.service.TakeFlash(r.Context(), identity.Session.ID)
		}
		h.renderer.Render(w, "login.html", data)
	}
}

// HandleLogin is the merged login/register endpoint: a never-seen username
// creates an account, a known one is password-checked. Failures set a one-shot
// flash message and redirect back to the entry page without establishing an
// authenticated session.
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.flashAndRedirect(w, r, "Invalid form submission.")
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		if username == "" || password == "" {
			h.flashAndRedirect(w, r, "Username and password are required.")
			return
		}

		user, created, err := h.service.LoginOrRegister(r.Context(), username, password)
		if err != nil {
			if apperror.IsAuthError(err) {
				h.flashAndRedirect(w, r, "Incorrect password")
				return
			}
			log.Printf("login failed for %q: %v", username, err)
			h.flashAndRedirect(w, r, "Something went wrong. Please try again.")
			return
		}
		if created {
			log.Printf("created account %q", username)
		}

		// Issue a fresh session id on login; drop whatever session carried the
		// user here (anonymous or otherwise).
		if identity, ok := IdentityFromContext(r.Context()); ok && identity.Session != nil {
			if err := h.service.EndSession(r.Context(), identity.Session.ID); err != nil {
				log.Printf("failed to end pre-login session: %v", err)
			}
		}
		session, err := h.service.StartSession(r.Context(), user.ID)
		if err != nil {
			log.Printf("session creation failed for %q: %v", username, err)
			h.flashAndRedirect(w, r, "Something went wrong. Please try again.")
			return
		}
		if err := h.service.SetSessionCookie(w, session); err != nil {
			log.Printf("failed to set session cookie: %v", err)
			h.flashAndRedirect(w, r, "Something went wrong. Please try again.")
			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandleLogout destroys the session unconditionally and redirects to the
// entry page. A missing session is a no-op success.
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok && identity.Session != nil {
			if err := h.service.EndSession(r.Context(), identity.Session.ID); err != nil {
				log.Printf("failed to end session on logout: %v", err)
			}
		}
		h.service.ClearSessionCookie(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// flashAndRedirect stores a one-shot message for the login page and sends the
// client back to it. When the request has no session yet, an anonymous one is
// created just to carry the message across the redirect.
func (h *Handlers) flashAndRedirect(w http.ResponseWriter, r *http.Request, message string) {
	session := h.sessionForFlash(w, r)
	if session != nil {
		if err := h.service.SetFlash(r.Context(), session.ID, message); err != nil {
			log.Printf("failed to set flash: %v", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) sessionForFlash(w http.ResponseWriter, r *http.Request) *Session {
	if identity, ok := IdentityFromContext(r.Context()); ok && identity.Session != nil {
		return identity.Session
	}
	session, err := h.service.StartAnonymousSession(r.Context())
	if err != nil {
		log.Printf("failed to start anonymous session: %v", err)
		return nil
	}
	if err := h.service.SetSessionCookie(w, session); err != nil {
		log.Printf("failed to set session cookie: %v", err)
	}
	return session
}

// Helper functions for writing responses, shared with the other handler
// packages.

// WriteJSON serializes data to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError uses the apperror system to write standardized error responses.
// Unexpected error types are wrapped as internal errors so callers never see
// raw diagnostic detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("error processing %s %s: %v", r.Method, r.URL.Path, appErr)
		// Replace server-fault messages with a generic one; internals stay in
		// the log.
		appErr = apperror.NewAppError(appErr.Type, "internal server error", nil)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
