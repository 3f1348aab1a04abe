// Package web renders HTML pages from templates embedded in the binary.
// Page data structs live with the handlers that use them; this package only
// knows template names and data contexts.
package web

import (
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes named templates against the embedded template set.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates. Parsing happens once at startup,
// so a broken template is a startup failure rather than a per-request 500.
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates}, nil
}

// Render executes the named template with the given data. Template execution
// errors become a 500; the error detail is logged, not sent to the client.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("error rendering template %q: %v", name, err)
		http.Error(w, "Could not render page", http.StatusInternalServerError)
	}
}
