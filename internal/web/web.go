// Package web holds the HTML templates served by the front end.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// IndexPage is the data rendered into index.html. Every field is optional.
type IndexPage struct {
	ResizedFile string
	Message     string
	Error       string
}

// ParseTemplates parses every embedded template.
func ParseTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
