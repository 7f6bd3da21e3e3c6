package api

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

// PageData is passed to the chat page template.
type PageData struct {
	Title   string
	Opening string
}

// Page renders the embedded chat page.
type Page struct {
	tmpl *template.Template
}

// NewPage parses every *.html file in templatesFS. The page itself must be
// named "index".
func NewPage(templatesFS fs.FS) (*Page, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if tmpl.Lookup("index") == nil {
		return nil, fmt.Errorf("template %q not found", "index")
	}
	return &Page{tmpl: tmpl}, nil
}

// Render writes the page.
func (p *Page) Render(w io.Writer, data PageData) error {
	return p.tmpl.ExecuteTemplate(w, "index", data)
}
