package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/currency"
	"github.com/Simplici0/calcoz/internal/plan"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

// pages maps a page file name to its template parsed together with the layout.
type pages map[string]*template.Template

var templateFuncs = template.FuncMap{
	"money": func(c currency.Currency, v float64) string { return c.Format(v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"num":   func(v float64) string { return fmt.Sprintf("%g", v) },
	"allows": func(p plan.Plan, feature string) bool {
		return p.Allows(plan.Feature(feature))
	},
}

func loadPages() (pages, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	out := make(pages, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == layoutTemplate {
			continue
		}
		t, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(templateFS, "templates/"+layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		out[base] = t
	}
	return out, nil
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
	State          plan.State
	Currency       currency.Currency
	Currencies     []currency.Currency
	ReturnPath     string
}

func (s *server) baseView(r *http.Request) baseViewData {
	st := stateFrom(r.Context())
	return baseViewData{
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
		State:          st,
		Currency:       st.CurrencyOrDefault(s.cfg.DefaultCurrency),
		Currencies:     currency.All(),
		ReturnPath:     returnPath(r),
	}
}

// returnPath is where the currency picker sends the browser back to.
func returnPath(r *http.Request) string {
	if r.Method != http.MethodGet {
		return "/"
	}
	return localRedirect(r.URL.RequestURI())
}

func (s *server) renderTemplate(w http.ResponseWriter, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.Error("unknown template", zap.String("page", page))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		s.logger.Error("render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
