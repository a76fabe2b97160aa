// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the shop front and
// the admin back office. Pages are parsed once at startup from the
// embedded templates and paired with the layout of their set.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/markdown"
	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/session"
)

//go:embed templates
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title     string            // Page title for <title> tag
	Section   string            // Active navigation entry (e.g. "products", "orders")
	Session   *session.Data     // Current user session (nil if anonymous)
	CSRFToken string            // CSRF token for forms
	CartCount int               // Units in the shopper's cart, shown in the header
	Nav       []models.Category // Category navigation of the shop layout
	Data      map[string]any    // Page-specific data
	Flashes   []Flash           // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "info"
	Message string
}

// ImageURLs resolves stored image keys to public addresses.
// *storage.Images satisfies it.
type ImageURLs interface {
	URL(key string) string
	ThumbURL(key string) string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// layouts maps a template set to its layout file. Sets without a layout
// hold standalone pages with their own <html> document.
var layouts = map[string]string{
	"shop":  "base.html",
	"admin": "base.html",
	"auth":  "",
}

// New creates a Renderer by parsing every page template. Pages are named
// "<set>/<file without .html>", for example "shop/product". images may be
// nil when object storage is not configured; pictures then render empty.
func New(images ImageURLs) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   Funcs(images),
	}

	for set, layout := range layouts {
		entries, err := templateFS.ReadDir("templates/" + set)
		if err != nil {
			return nil, fmt.Errorf("read templates/%s: %w", set, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || name == layout || !strings.HasSuffix(name, ".html") {
				continue
			}

			files := []string{"templates/" + set + "/" + name}
			root := name
			if layout != "" {
				files = append([]string{"templates/" + set + "/" + layout}, files...)
				root = layout
			}
			tmpl, err := template.New(root).Funcs(r.funcMap).ParseFS(templateFS, files...)
			if err != nil {
				return nil, fmt.Errorf("parse template %s/%s: %w", set, name, err)
			}
			r.templates[set+"/"+strings.TrimSuffix(name, ".html")] = tmpl
		}
	}

	return r, nil
}

// Has reports whether a page template exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders a page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a page with the given status code. The CSRF token
// and the session are injected from the request context. The page is
// executed into a buffer first so a template error never leaves a half
// written response.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("template execution failed", "error", err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Funcs returns the template helpers shared by every page.
func Funcs(images ImageURLs) template.FuncMap {
	return template.FuncMap{
		"money": Money,
		"markdown": func(s string) template.HTML {
			return markdown.Render(s)
		},
		"imageURL": func(key *string) string {
			if key == nil || *key == "" || images == nil {
				return ""
			}
			return images.URL(*key)
		},
		"thumbURL": func(key *string) string {
			if key == nil || *key == "" || images == nil {
				return ""
			}
			return images.ThumbURL(*key)
		},
		// deref safely dereferences a string pointer for use in templates.
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"statusLabel": StatusLabel,
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"pageQuery": PageQuery,
		"dict":      dict,
		"date": func(t time.Time) string {
			return t.Format("02/01/2006")
		},
		"dateTime": func(t time.Time) string {
			return t.Format("02/01/2006 15:04")
		},
	}
}

// Money formats an amount with two decimals and the euro sign.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

// StatusLabel returns the display name of an order status.
func StatusLabel(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusPending:
		return "Pending"
	case models.OrderStatusProcessing:
		return "Processing"
	case models.OrderStatusShipped:
		return "Shipped"
	case models.OrderStatusDelivered:
		return "Delivered"
	case models.OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// dict builds a map from alternating keys and values, to pass several
// values to a nested template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// PageQuery encodes q with the page parameter replaced. Page 1 drops the
// parameter so the first page keeps a canonical URL.
func PageQuery(q url.Values, page int) string {
	out := url.Values{}
	for k, v := range q {
		if k != "page" {
			out[k] = v
		}
	}
	if page > 1 {
		out.Set("page", strconv.Itoa(page))
	}
	if len(out) == 0 {
		return ""
	}
	return "?" + out.Encode()
}
