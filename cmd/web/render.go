package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finitefield.org/storefront-web/internal/format"
)

func (a *app) parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": time.Now,
		"price": func(v any) string {
			switch d := v.(type) {
			case decimal.Decimal:
				return format.Price(d, a.cfg.Currency)
			case *decimal.Decimal:
				if d == nil {
					return ""
				}
				return format.Price(*d, a.cfg.Currency)
			}
			return ""
		},
		"discount": format.Discount,
		"date":     format.Date,
		"jsonld": func(s string) template.JS {
			return template.JS(s)
		},
	}
	// Recursively discover and parse all .tmpl files; ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(a.cfg.TemplatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", a.cfg.TemplatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func (a *app) templates() (*template.Template, error) {
	if a.tmplCache != nil {
		return a.tmplCache, nil
	}
	return a.parseTemplates()
}

// renderPage executes the base layout with the given view model.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, data any) {
	a.execute(w, r, "base", data)
}

// renderTemplate executes a named template, used for htmx fragments.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.execute(w, r, name, data)
}

func (a *app) execute(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, err := a.templates()
	if err != nil {
		a.log.Error().Err(err).Msg("template parse")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	// Render to a buffer first so a mid-template failure never emits a torn page.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		a.log.Error().Err(err).Str("template", name).Msg("template exec")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// renderFragments executes several templates into one response body, for htmx
// out-of-band swaps.
func (a *app) renderFragments(w http.ResponseWriter, r *http.Request, frags []fragment) {
	t, err := a.templates()
	if err != nil {
		a.log.Error().Err(err).Msg("template parse")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	for _, f := range frags {
		if err := t.ExecuteTemplate(&buf, f.name, f.data); err != nil {
			a.log.Error().Err(err).Str("template", f.name).Msg("template exec")
			http.Error(w, "template error", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type fragment struct {
	name string
	data any
}
