// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the watch store.
// Handlers are grouped by concern (public catalog, shop, auth, admin) and
// receive their dependencies through the handler struct. They parse
// requests, call the catalog and checkout services, and render the result.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"watchstore/internal/catalog"
	"watchstore/internal/checkout"
	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/render"
)

// Shell renders shop pages with the data every page of the layout needs:
// the category navigation and the size of the shopper's cart.
type Shell struct {
	renderer *render.Renderer
	catalog  *catalog.Service
	carts    *checkout.CartService
}

// NewShell creates the shared page shell.
func NewShell(renderer *render.Renderer, catalogSvc *catalog.Service, carts *checkout.CartService) *Shell {
	return &Shell{renderer: renderer, catalog: catalogSvc, carts: carts}
}

// page renders a shop page with status 200.
func (s *Shell) page(w http.ResponseWriter, r *http.Request, name string, data *render.PageData) {
	s.pageStatus(w, r, http.StatusOK, name, data)
}

func (s *Shell) pageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData) {
	nav, err := s.catalog.NavTree(r.Context())
	if err != nil {
		slog.Error("load navigation failed", "error", err)
	}
	data.Nav = nav

	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		if cart, err := s.carts.GetCart(sess.UserID); err != nil {
			slog.Error("load cart failed", "error", err, "user_id", sess.UserID)
		} else {
			data.CartCount = cart.ItemCount()
		}
	}

	s.renderer.PageStatus(w, r, status, name, data)
}

// errorPage renders the shop error page.
func (s *Shell) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.pageStatus(w, r, status, "shop/error", &render.PageData{
		Title: http.StatusText(status),
		Data: map[string]any{
			"Status":  status,
			"Message": message,
		},
	})
}

// fail maps a service error to a response. Validation errors are the
// caller's to re-render and never reach this function.
func (s *Shell) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "path", r.URL.Path)
	}
	s.errorPage(w, r, status, messageFor(status))
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	if _, ok := models.AsValidation(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrHasDependents), errors.Is(err, models.ErrEmptyCart):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func messageFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "The page you are looking for does not exist."
	case http.StatusForbidden:
		return "You do not have access to this page."
	case http.StatusConflict:
		return "This action is not possible in the current state."
	case http.StatusUnprocessableEntity:
		return "The submitted data is invalid."
	}
	return "Something went wrong on our side. Please try again later."
}

// urlID parses a UUID route parameter.
func urlID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// validationFields returns the per-field messages of a validation error.
func validationFields(err error) (map[string]string, bool) {
	ve, ok := models.AsValidation(err)
	if !ok {
		return nil, false
	}
	return ve.Fields, true
}
