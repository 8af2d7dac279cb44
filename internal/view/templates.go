package view

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		// Backend timestamps arrive as RFC3339 strings; render them
		// compact and pass anything unparseable through untouched.
		"formatDate": func(s string) string {
			if s == "" {
				return ""
			}
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format("02 Jan 2006 15:04")
				}
			}
			return s
		},
		// Filter values are dynamically typed; compare via their
		// printed form when marking select options.
		"eqv": func(v any, want string) bool {
			return fmt.Sprint(v) == want
		},
		"percent": func(ratio float64) string {
			return fmt.Sprintf("%.1f%%", ratio*100)
		},
		"pageWindow": func(current, total int) []shared.PageItem {
			return shared.PageWindow(current, total, 2)
		},
		"pageURL": func(base, rawQuery string, page int) string {
			q, err := url.ParseQuery(rawQuery)
			if err != nil {
				q = url.Values{}
			}
			q.Set("page", fmt.Sprint(page))
			return base + "?" + q.Encode()
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html", "templates/dialogs/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
