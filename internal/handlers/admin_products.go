package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"watchstore/internal/catalog"
	"watchstore/internal/models"
	"watchstore/internal/render"
)

// adminProductPageSize is the number of products per back-office page.
const adminProductPageSize = 20

// ProductsList renders the product screen. Without filters it lists every
// product, active or not, newest first.
func (a *Admin) ProductsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := catalog.Criteria{
		Search: q.Get("search"),
		Brand:  q.Get("brand"),
	}
	if s := q.Get("sort"); s != "" {
		criteria.Sort = models.ParseProductSort(s)
	}
	if id, err := uuid.Parse(q.Get("category")); err == nil {
		criteria.CategoryID = &id
	}
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := a.catalog.AdminProducts(criteria, page, adminProductPageSize)
	if err != nil {
		a.fail(w, r, err, "list products failed")
		return
	}
	tree, err := a.catalog.Tree()
	if err != nil {
		a.fail(w, r, err, "load categories failed")
		return
	}
	brands, err := a.catalog.ListBrands(r.Context(), nil)
	if err != nil {
		slog.Error("list brands failed", "error", err)
	}

	a.page(w, r, http.StatusOK, "admin/products_list", &render.PageData{
		Title:   "Products",
		Section: "products",
		Data: map[string]any{
			"Result":     result,
			"Criteria":   criteria,
			"RawQuery":   q,
			"Categories": tree.All(),
			"Brands":     brands,
		},
	})
}

// productForm renders the product form with the category tree and the
// known brands.
func (a *Admin) productForm(w http.ResponseWriter, r *http.Request, status int, item *models.Product, in catalog.ProductInput, errs map[string]string) {
	tree, err := a.catalog.Tree()
	if err != nil {
		a.fail(w, r, err, "load categories failed")
		return
	}
	brands, err := a.catalog.ListBrands(r.Context(), nil)
	if err != nil {
		slog.Error("list brands failed", "error", err)
	}

	// Split the chosen category into the two selects of the form.
	var mainID, subID *uuid.UUID
	if in.CategoryID != nil {
		if c, ok := tree.Get(*in.CategoryID); ok {
			if c.IsMainCategory {
				mainID = &c.ID
			} else {
				mainID, subID = c.ParentID, &c.ID
			}
		}
	}
	var subs []models.Category
	if mainID != nil {
		subs = tree.Children(*mainID)
	}

	title := "New product"
	if item != nil {
		title = "Edit " + item.Name
	}
	a.page(w, r, status, "admin/product_form", &render.PageData{
		Title:   title,
		Section: "products",
		Data: map[string]any{
			"IsNew":         item == nil,
			"Item":          item,
			"Input":         in,
			"Mains":         tree.MainCategories(true),
			"MainID":        mainID,
			"Subcategories": subs,
			"SubID":         subID,
			"Brands":        brands,
			"Errors":        errs,
		},
	})
}

// ProductNew renders an empty product form.
func (a *Admin) ProductNew(w http.ResponseWriter, r *http.Request) {
	a.productForm(w, r, http.StatusOK, nil, catalog.ProductInput{IsActive: true}, nil)
}

// ProductCreate handles the new product form submission.
func (a *Admin) ProductCreate(w http.ResponseWriter, r *http.Request) {
	if err := parseAdminForm(w, r); err != nil {
		a.productForm(w, r, http.StatusRequestEntityTooLarge, nil, catalog.ProductInput{}, map[string]string{"image": msgTooLarge})
		return
	}
	in, fe := parseProductForm(r)
	if len(fe) > 0 {
		a.productForm(w, r, http.StatusUnprocessableEntity, nil, in, fe)
		return
	}
	image, msg := a.uploadImage(r.Context(), r, "image", "products")
	if msg != "" {
		a.productForm(w, r, http.StatusUnprocessableEntity, nil, in, map[string]string{"image": msg})
		return
	}
	in.Image = image

	if _, err := a.catalog.CreateProduct(r.Context(), in); err != nil {
		a.discardImage(r.Context(), image)
		if fe.merge(err) {
			a.productForm(w, r, http.StatusUnprocessableEntity, nil, in, fe)
			return
		}
		a.fail(w, r, err, "create product failed")
		return
	}
	redirectDone(w, r, "/admin/products", "created")
}

func productInputOf(p *models.Product) catalog.ProductInput {
	return catalog.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Brand:       p.Brand,
		Model:       p.Model,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		Image:       p.Image,
	}
}

// ProductEdit renders the edit form of a product.
func (a *Admin) ProductEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	p, err := a.catalog.Product(id)
	if err != nil {
		a.fail(w, r, err, "load product failed")
		return
	}
	a.productForm(w, r, http.StatusOK, p, productInputOf(p), nil)
}

// ProductUpdate handles the edit form submission. A new image replaces
// and removes the previous one.
func (a *Admin) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	p, err := a.catalog.Product(id)
	if err != nil {
		a.fail(w, r, err, "load product failed")
		return
	}
	previous := p.Image

	if err := parseAdminForm(w, r); err != nil {
		a.productForm(w, r, http.StatusRequestEntityTooLarge, p, productInputOf(p), map[string]string{"image": msgTooLarge})
		return
	}
	in, fe := parseProductForm(r)
	if len(fe) > 0 {
		a.productForm(w, r, http.StatusUnprocessableEntity, p, in, fe)
		return
	}
	image, msg := a.uploadImage(r.Context(), r, "image", "products")
	if msg != "" {
		a.productForm(w, r, http.StatusUnprocessableEntity, p, in, map[string]string{"image": msg})
		return
	}
	in.Image = image

	if _, err := a.catalog.UpdateProduct(r.Context(), id, in); err != nil {
		a.discardImage(r.Context(), image)
		if fe.merge(err) {
			a.productForm(w, r, http.StatusUnprocessableEntity, p, in, fe)
			return
		}
		a.fail(w, r, err, "update product failed")
		return
	}
	if image != nil {
		a.discardImage(r.Context(), previous)
	}
	redirectDone(w, r, "/admin/products", "updated")
}

// ProductDelete removes a product and its image.
func (a *Admin) ProductDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	p, err := a.catalog.Product(id)
	if err != nil {
		a.fail(w, r, err, "load product failed")
		return
	}
	if err := a.catalog.DeleteProduct(r.Context(), id); err != nil {
		a.fail(w, r, err, "delete product failed")
		return
	}
	a.discardImage(r.Context(), p.Image)
	redirectDone(w, r, "/admin/products", "deleted")
}
