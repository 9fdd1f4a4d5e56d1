package main

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"time"
)

//go:embed templates
var templatesFS embed.FS

type pageTemplate struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"when": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// loadPages parses every page template together with the shared layout.
func loadPages() (map[string]*pageTemplate, error) {
	names, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*pageTemplate, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", name)
		if err != nil {
			return nil, err
		}
		pages[base] = &pageTemplate{tmpl: t}
	}
	return pages, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title string
	User  *user
	Flash string
	Error string
	Data  any
}

// render executes a page into a buffer first so template errors never produce half a page.
func (s *server) render(w http.ResponseWriter, r *http.Request, status int, name string, pd pageData) {
	p, ok := s.pages[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if pd.User == nil {
		pd.User = currentUser(r)
	}
	pd.Flash = popFlash(w, r)

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		slog.Error("template execute", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
