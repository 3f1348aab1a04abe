package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/garage-go/web"
)

func newTestHandlers(t *testing.T) (*Handlers, *Service) {
	t.Helper()
	service, _, _ := newTestService()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	return NewHandlers(service, renderer), service
}

func postLogin(t *testing.T, h *Handlers, service *Service, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	service.LoadSession(h.HandleLogin()).ServeHTTP(rec, req)
	return rec
}

func TestHandleLogin_FirstUseRedirectsToDashboard(t *testing.T) {
	h, service := newTestHandlers(t)

	rec := postLogin(t, h, service, "frank", "pw")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	// The response establishes a session for the new account.
	req := requestWithCookies(t, http.MethodGet, "/dashboard", rec)
	id, ok := service.sessionIDFromRequest(req)
	require.True(t, ok)
	session, err := service.sessions.Get(req.Context(), id)
	require.NoError(t, err)
	assert.True(t, session.Authenticated())
}

func TestHandleLogin_WrongPasswordFlashesAndRedirectsHome(t *testing.T) {
	h, service := newTestHandlers(t)

	rec := postLogin(t, h, service, "grace", "right")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postLogin(t, h, service, "grace", "wrong")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The failure left a one-shot flash on an unauthenticated session, which
	// the login page renders and consumes.
	req := requestWithCookies(t, http.MethodGet, "/", rec)
	id, ok := service.sessionIDFromRequest(req)
	require.True(t, ok)
	session, err := service.sessions.Get(req.Context(), id)
	require.NoError(t, err)
	assert.False(t, session.Authenticated(), "failed login must not establish a session")

	page := httptest.NewRecorder()
	service.LoadSession(h.HandleIndex()).ServeHTTP(page, req)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Incorrect password")
}

func TestHandleLogin_MissingFieldsRedirectWithoutLookup(t *testing.T) {
	h, service := newTestHandlers(t)

	rec := postLogin(t, h, service, "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandleIndex_AuthenticatedRedirectsToDashboard(t *testing.T) {
	h, service := newTestHandlers(t)

	rec := postLogin(t, h, service, "heidi", "pw")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := httptest.NewRecorder()
	service.LoadSession(h.HandleIndex()).ServeHTTP(page, requestWithCookies(t, http.MethodGet, "/", rec))
	assert.Equal(t, http.StatusSeeOther, page.Code)
	assert.Equal(t, "/dashboard", page.Header().Get("Location"))
}

func TestHandleLogout_DestroysSession(t *testing.T) {
	h, service := newTestHandlers(t)

	login := postLogin(t, h, service, "ivan", "pw")
	require.Equal(t, http.StatusSeeOther, login.Code)

	logout := httptest.NewRecorder()
	service.LoadSession(h.HandleLogout()).ServeHTTP(logout, requestWithCookies(t, http.MethodPost, "/logout", login))
	assert.Equal(t, http.StatusSeeOther, logout.Code)
	assert.Equal(t, "/", logout.Header().Get("Location"))

	// The old cookie no longer resolves to a session.
	req := requestWithCookies(t, http.MethodGet, "/dashboard", login)
	id, ok := service.sessionIDFromRequest(req)
	require.True(t, ok)
	_, err := service.sessions.Get(req.Context(), id)
	assert.Error(t, err)

	// Logout with no session at all is still a redirect, not an error.
	again := httptest.NewRecorder()
	service.LoadSession(h.HandleLogout()).ServeHTTP(again, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, again.Code)
}
