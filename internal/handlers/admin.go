// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"watchstore/internal/catalog"
	"watchstore/internal/checkout"
	"watchstore/internal/models"
	"watchstore/internal/render"
	"watchstore/internal/store"
)

// recentOrdersOnDashboard is the size of the dashboard's order list.
const recentOrdersOnDashboard = 5

// ImageStore saves and removes uploaded pictures. *storage.Images
// satisfies it.
type ImageStore interface {
	Save(ctx context.Context, prefix string, data []byte) (string, error)
	Delete(ctx context.Context, key string)
}

// Admin groups all back-office HTTP handlers and their dependencies.
type Admin struct {
	renderer  *render.Renderer
	catalog   *catalog.Service
	orders    *checkout.OrderService
	userStore *store.UserStore
	images    ImageStore
}

// NewAdmin creates a new Admin handler group. images may be nil if S3 is
// not configured; uploads are then refused with a form error.
func NewAdmin(renderer *render.Renderer, catalogSvc *catalog.Service, orders *checkout.OrderService, userStore *store.UserStore, images ImageStore) *Admin {
	return &Admin{
		renderer:  renderer,
		catalog:   catalogSvc,
		orders:    orders,
		userStore: userStore,
		images:    images,
	}
}

// flashMessages maps the "done" query parameter set by redirects after
// a successful action to the message shown on the next page.
var flashMessages = map[string]render.Flash{
	"created":   {Type: "success", Message: "Saved."},
	"updated":   {Type: "success", Message: "Changes saved."},
	"deleted":   {Type: "success", Message: "Deleted."},
	"toggled":   {Type: "success", Message: "Status changed."},
	"status":    {Type: "success", Message: "Order status updated."},
	"role":      {Type: "success", Message: "Role updated."},
	"2fa-reset": {Type: "success", Message: "Two-factor authentication reset."},
	"in-use":    {Type: "error", Message: "This category still has subcategories or products and cannot be deleted."},
	"self":      {Type: "error", Message: "You cannot change your own role."},
}

func flashesFor(r *http.Request) []render.Flash {
	if f, ok := flashMessages[r.URL.Query().Get("done")]; ok {
		return []render.Flash{f}
	}
	return nil
}

// redirectDone sends the browser back to path with a flash code.
func redirectDone(w http.ResponseWriter, r *http.Request, path, code string) {
	http.Redirect(w, r, path+"?done="+url.QueryEscape(code), http.StatusSeeOther)
}

// page renders a back-office page with the flash of the last action.
func (a *Admin) page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData) {
	data.Flashes = append(data.Flashes, flashesFor(r)...)
	a.renderer.PageStatus(w, r, status, name, data)
}

// fail maps a service error to the back-office error page.
func (a *Admin) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "path", r.URL.Path)
	}
	a.renderer.PageStatus(w, r, status, "admin/error", &render.PageData{
		Title: http.StatusText(status),
		Data: map[string]any{
			"Status":  status,
			"Message": messageFor(status),
		},
	})
}

func (a *Admin) notFound(w http.ResponseWriter, r *http.Request) {
	a.fail(w, r, models.ErrNotFound, "")
}

// Dashboard renders the back-office home with catalog and order figures.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	tree, err := a.catalog.Tree()
	if err != nil {
		a.fail(w, r, err, "load categories failed")
		return
	}
	products, err := a.catalog.AdminProducts(catalog.Criteria{}, 1, 1)
	if err != nil {
		a.fail(w, r, err, "count products failed")
		return
	}
	byStatus, err := a.orders.CountByStatus()
	if err != nil {
		a.fail(w, r, err, "count orders failed")
		return
	}
	recent, err := a.orders.RecentOrders(recentOrdersOnDashboard)
	if err != nil {
		a.fail(w, r, err, "load recent orders failed")
		return
	}
	customers, err := a.userStore.Count(models.RoleCustomer)
	if err != nil {
		slog.Error("count customers failed", "error", err)
	}

	orderCount := 0
	for _, n := range byStatus {
		orderCount += n
	}

	a.page(w, r, http.StatusOK, "admin/dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"CategoryCount": tree.Len(),
			"ProductCount":  products.Total,
			"OrderCount":    orderCount,
			"PendingCount":  byStatus[models.OrderStatusPending],
			"CustomerCount": customers,
			"RecentOrders":  recent,
		},
	})
}

// --- Categories ---

// CategoriesList renders the category screen: main categories and the
// filtered subcategories of active main categories.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.CategoryListFilter{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		MainStatus: q.Get("main_status"),
	}
	if id, err := uuid.Parse(q.Get("main")); err == nil {
		filter.MainCategoryID = &id
	}

	listing, err := a.catalog.AdminCategories(filter)
	if err != nil {
		a.fail(w, r, err, "list categories failed")
		return
	}

	a.page(w, r, http.StatusOK, "admin/categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data: map[string]any{
			"Listing": listing,
			"Filter":  filter,
		},
	})
}

// categoryForm renders the category form. kind is "main" or "sub".
func (a *Admin) categoryForm(w http.ResponseWriter, r *http.Request, status int, kind string, item *models.Category, in catalog.CategoryInput, errs map[string]string) {
	mains, err := a.catalog.ListMainCategories(true)
	if err != nil {
		a.fail(w, r, err, "list main categories failed")
		return
	}
	title := "New category"
	if item != nil {
		title = "Edit " + item.Name
	}
	a.page(w, r, status, "admin/category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data: map[string]any{
			"Kind":      kind,
			"IsNew":     item == nil,
			"Item":      item,
			"Input":     in,
			"Mains":     mains,
			"MainTypes": models.MainCategoryTypes,
			"Errors":    errs,
		},
	})
}

// CategoryNew renders an empty category form. ?kind=sub creates a
// subcategory, optionally under ?parent=<id>.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	kind := "main"
	in := catalog.CategoryInput{IsActive: true}
	if r.URL.Query().Get("kind") == "sub" {
		kind = "sub"
		if id, err := uuid.Parse(r.URL.Query().Get("parent")); err == nil {
			in.ParentID = &id
		}
	}
	a.categoryForm(w, r, http.StatusOK, kind, nil, in, nil)
}

// CategoryCreate handles the new category form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	kind := "main"
	if err := parseAdminForm(w, r); err != nil {
		a.categoryForm(w, r, http.StatusRequestEntityTooLarge, kind, nil, catalog.CategoryInput{}, map[string]string{"image": msgTooLarge})
		return
	}
	if r.PostFormValue("kind") == "sub" {
		kind = "sub"
	}

	in, fe := parseCategoryForm(r)
	if len(fe) > 0 {
		a.categoryForm(w, r, http.StatusUnprocessableEntity, kind, nil, in, fe)
		return
	}
	image, msg := a.uploadImage(r.Context(), r, "image", "categories")
	if msg != "" {
		a.categoryForm(w, r, http.StatusUnprocessableEntity, kind, nil, in, map[string]string{"image": msg})
		return
	}
	in.Image = image

	var err error
	if kind == "sub" {
		_, err = a.catalog.CreateSubcategory(r.Context(), in)
	} else {
		_, err = a.catalog.CreateMainCategory(r.Context(), in)
	}
	if err != nil {
		a.discardImage(r.Context(), image)
		if fe.merge(err) {
			a.categoryForm(w, r, http.StatusUnprocessableEntity, kind, nil, in, fe)
			return
		}
		a.fail(w, r, err, "create category failed")
		return
	}

	redirectDone(w, r, "/admin/categories", "created")
}

func kindOf(c *models.Category) string {
	if c.IsMainCategory {
		return "main"
	}
	return "sub"
}

func categoryInputOf(c *models.Category) catalog.CategoryInput {
	in := catalog.CategoryInput{
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		IsActive:    c.IsActive,
		SortOrder:   &c.SortOrder,
		ParentID:    c.ParentID,
	}
	if c.MainCategoryType != nil {
		in.MainCategoryType = *c.MainCategoryType
	}
	return in
}

// CategoryEdit renders the edit form of a category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	c, err := a.catalog.Category(id)
	if err != nil {
		a.fail(w, r, err, "load category failed")
		return
	}
	a.categoryForm(w, r, http.StatusOK, kindOf(c), c, categoryInputOf(c), nil)
}

// CategoryUpdate handles the edit form submission. A new image replaces
// and removes the previous one.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	c, err := a.catalog.Category(id)
	if err != nil {
		a.fail(w, r, err, "load category failed")
		return
	}
	previous := c.Image

	if err := parseAdminForm(w, r); err != nil {
		a.categoryForm(w, r, http.StatusRequestEntityTooLarge, kindOf(c), c, categoryInputOf(c), map[string]string{"image": msgTooLarge})
		return
	}
	in, fe := parseCategoryForm(r)
	if len(fe) > 0 {
		a.categoryForm(w, r, http.StatusUnprocessableEntity, kindOf(c), c, in, fe)
		return
	}
	image, msg := a.uploadImage(r.Context(), r, "image", "categories")
	if msg != "" {
		a.categoryForm(w, r, http.StatusUnprocessableEntity, kindOf(c), c, in, map[string]string{"image": msg})
		return
	}
	in.Image = image

	if _, err := a.catalog.UpdateCategory(r.Context(), id, in); err != nil {
		a.discardImage(r.Context(), image)
		if fe.merge(err) {
			a.categoryForm(w, r, http.StatusUnprocessableEntity, kindOf(c), c, in, fe)
			return
		}
		a.fail(w, r, err, "update category failed")
		return
	}
	if image != nil {
		a.discardImage(r.Context(), previous)
	}

	redirectDone(w, r, "/admin/categories", "updated")
}

// CategoryToggle flips the active flag of a category.
func (a *Admin) CategoryToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	if _, err := a.catalog.ToggleCategory(r.Context(), id); err != nil {
		a.fail(w, r, err, "toggle category failed")
		return
	}
	redirectDone(w, r, "/admin/categories", "toggled")
}

// CategoryDelete removes an unused category and its image.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	c, err := a.catalog.Category(id)
	if err != nil {
		a.fail(w, r, err, "load category failed")
		return
	}

	if err := a.catalog.DeleteCategory(r.Context(), id); err != nil {
		if statusFor(err) == http.StatusConflict {
			redirectDone(w, r, "/admin/categories", "in-use")
			return
		}
		a.fail(w, r, err, "delete category failed")
		return
	}
	a.discardImage(r.Context(), c.Image)

	redirectDone(w, r, "/admin/categories", "deleted")
}

// subcategoryOption is one entry of the product form's subcategory select.
type subcategoryOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Subcategories returns the active subcategories of a main category as
// JSON, for the cascading select of the product form.
func (a *Admin) Subcategories(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
		return
	}
	subs, err := a.catalog.SubcategoriesOf(id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("list subcategories failed", "error", err)
		}
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	opts := make([]subcategoryOption, 0, len(subs))
	for _, s := range subs {
		opts = append(opts, subcategoryOption{ID: s.ID, Name: s.Name})
	}
	writeJSON(w, http.StatusOK, opts)
}
