package web

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLoginPage(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	renderer.Render(rec, "login.html", struct{ Flash string }{Flash: "Incorrect password"})

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `action="/login"`)
	assert.Contains(t, body, `name="username"`)
	assert.Contains(t, body, `name="password"`)
	assert.Contains(t, body, "Incorrect password")
}

func TestRenderLoginPageWithoutFlash(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	renderer.Render(rec, "login.html", struct{ Flash string }{})

	require.Equal(t, 200, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Incorrect password")
}

func TestRenderDashboardEscapesUserContent(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	type car struct {
		ID           string
		Model        string
		Year         int
		MPG          float64
		Notes        string
		Fuel         string
		IsElectric   bool
		Transmission string
	}
	data := struct {
		User  struct{ Username string }
		Cars  []car
		Flash string
	}{
		User: struct{ Username string }{Username: "demo"},
		Cars: []car{{
			ID:           "0b1e0d9d-2c2a-4a68-9f3e-0f8a4c2d1b11",
			Model:        "<script>alert(1)</script>",
			Year:         2020,
			MPG:          35,
			Fuel:         "gasoline",
			Transmission: "auto",
		}},
	}

	rec := httptest.NewRecorder()
	renderer.Render(rec, "dashboard.html", data)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "demo")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `action="/logout"`)
	assert.Contains(t, body, `action="/cars"`)
}

func TestRenderUnknownTemplateFailsWith500(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	renderer.Render(rec, "missing.html", nil)

	assert.Equal(t, 500, rec.Code)
}
