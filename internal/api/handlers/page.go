package handlers

import (
	"PixelRelay/internal/relay"
	"PixelRelay/internal/storage"
	"PixelRelay/internal/web"
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// PageRenderer renders the index page
type PageRenderer struct {
	tmpl   *template.Template
	logger *zap.Logger
}

func NewPageRenderer(tmpl *template.Template, logger *zap.Logger) *PageRenderer {
	return &PageRenderer{tmpl: tmpl, logger: logger}
}

// Render executes the index template into a buffer first so a template
// failure still yields a clean 500.
func (p *PageRenderer) Render(w http.ResponseWriter, status int, page web.IndexPage) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		p.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Index serves GET /
func (p *PageRenderer) Index(w http.ResponseWriter, r *http.Request) {
	p.Render(w, http.StatusOK, web.IndexPage{})
}

// RenderError maps err to a status and shows it on the index page.
func (p *PageRenderer) RenderError(w http.ResponseWriter, err error) {
	status, message := classify(err)
	p.Render(w, status, web.IndexPage{Error: message})
}

// classify maps an error kind to an HTTP status and a user-facing message.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Upload too large"
	case errors.Is(err, errBadRequest), relay.IsBadRequest(err):
		return http.StatusBadRequest, "Bad request: " + err.Error()
	case storage.IsNotFound(err):
		return http.StatusInternalServerError, "File not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
