// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"watchstore/internal/catalog"
	"watchstore/internal/models"
	"watchstore/internal/render"
)

// Home page sizes.
const (
	featuredPerCategory = 4
	popularCategories   = 3
	recentProducts      = 8
)

// Public groups the catalog pages every visitor can see.
type Public struct {
	*Shell
	pageSize int
}

// NewPublic creates the public handler group. pageSize is the number of
// products per listing page.
func NewPublic(shell *Shell, pageSize int) *Public {
	return &Public{Shell: shell, pageSize: pageSize}
}

// Home renders the landing page: featured products per main category,
// the most stocked categories and the latest arrivals.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := p.catalog.FeaturedByMainCategory(featuredPerCategory)
	if err != nil {
		p.fail(w, r, err, "load featured products failed")
		return
	}
	popular, err := p.catalog.PopularMainCategories(popularCategories)
	if err != nil {
		p.fail(w, r, err, "load popular categories failed")
		return
	}
	recent, err := p.catalog.RecentProducts(recentProducts)
	if err != nil {
		p.fail(w, r, err, "load recent products failed")
		return
	}

	p.page(w, r, "shop/home", &render.PageData{
		Title:   "Watches",
		Section: "home",
		Data: map[string]any{
			"Featured": featured,
			"Popular":  popular,
			"Recent":   recent,
		},
	})
}

// listingQuery is the parsed query string of the product listing.
type listingQuery struct {
	Search      string
	Brand       string
	Category    string
	Subcategory string
	Sort        models.ProductSort
	Page        int
}

func parseListingQuery(q url.Values) listingQuery {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return listingQuery{
		Search:      strings.TrimSpace(q.Get("search")),
		Brand:       strings.TrimSpace(q.Get("brand")),
		Category:    strings.TrimSpace(q.Get("category")),
		Subcategory: strings.TrimSpace(q.Get("subcategory")),
		Sort:        models.ParseProductSort(q.Get("sort")),
		Page:        page,
	}
}

// Products renders the filtered, sorted and paginated product listing.
// A subcategory narrows the listing to itself and must belong to the
// given main category; a main category alone covers its whole active subtree.
func (p *Public) Products(w http.ResponseWriter, r *http.Request) {
	lq := parseListingQuery(r.URL.Query())
	criteria := catalog.Criteria{Search: lq.Search, Brand: lq.Brand, Sort: lq.Sort}

	var mainCat, subCat *models.Category
	var subcategories []models.Category
	if lq.Category != "" {
		c, err := p.catalog.ResolveBySlug(lq.Category)
		if err != nil {
			p.fail(w, r, err, "resolve category failed")
			return
		}
		mainCat = c
		criteria.CategoryID = &c.ID

		subcategories, err = p.catalog.ListActiveChildren(c.ID)
		if err != nil {
			p.fail(w, r, err, "list subcategories failed")
			return
		}
	}
	if lq.Subcategory != "" {
		c, err := p.catalog.ResolveBySlug(lq.Subcategory)
		if err != nil {
			p.fail(w, r, err, "resolve subcategory failed")
			return
		}
		if mainCat != nil && (c.ParentID == nil || *c.ParentID != mainCat.ID) {
			p.fail(w, r, models.ErrNotFound, "subcategory outside category")
			return
		}
		subCat = c
		criteria.CategoryID = &c.ID
	}

	result, err := p.catalog.FindProductsPage(criteria, lq.Page, p.pageSize)
	if err != nil {
		p.fail(w, r, err, "find products failed")
		return
	}

	var brandScope *uuid.UUID
	if mainCat != nil {
		brandScope = &mainCat.ID
	}
	brands, err := p.catalog.ListBrands(r.Context(), brandScope)
	if err != nil {
		slog.Error("list brands failed", "error", err)
	}

	title := "All watches"
	switch {
	case subCat != nil:
		title = subCat.Name
	case mainCat != nil:
		title = mainCat.Name
	}

	p.page(w, r, "shop/products", &render.PageData{
		Title:   title,
		Section: "products",
		Data: map[string]any{
			"Result":        result,
			"Query":         lq,
			"RawQuery":      r.URL.Query(),
			"Category":      mainCat,
			"Subcategory":   subCat,
			"Subcategories": subcategories,
			"Brands":        brands,
			"Sorts":         sortOptions,
		},
	})
}

// sortOption is one entry of the listing's sort selector.
type sortOption struct {
	Value models.ProductSort
	Label string
}

var sortOptions = []sortOption{
	{models.SortDefault, "Newest"},
	{models.SortPriceAsc, "Price: low to high"},
	{models.SortPriceDesc, "Price: high to low"},
	{models.SortNameAsc, "Name: A to Z"},
	{models.SortNameDesc, "Name: Z to A"},
}

// Product renders a product page with its related products.
func (p *Public) Product(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		p.errorPage(w, r, http.StatusNotFound, messageFor(http.StatusNotFound))
		return
	}

	product, err := p.catalog.ActiveProduct(id)
	if err != nil {
		p.fail(w, r, err, "load product failed")
		return
	}

	related, err := p.catalog.FindRelated(product, p.catalog.RelatedLimit())
	if err != nil {
		slog.Error("find related products failed", "error", err, "product_id", id)
	}

	var category *models.Category
	if product.CategoryID != nil {
		if c, err := p.catalog.Category(*product.CategoryID); err == nil {
			category = c
		}
	}

	p.page(w, r, "shop/product", &render.PageData{
		Title:   product.Name,
		Section: "products",
		Data: map[string]any{
			"Product":  product,
			"Category": category,
			"Related":  related,
		},
	})
}

// Categories renders the category index: every active main category with
// its active subcategories and product counts.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	tree, err := p.catalog.NavTree(r.Context())
	if err != nil {
		p.fail(w, r, err, "load categories failed")
		return
	}
	p.page(w, r, "shop/categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": tree},
	})
}

// Category redirects a category slug to the matching product listing. A
// subcategory is listed under its main category.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	c, err := p.catalog.ResolveBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		p.fail(w, r, err, "resolve category failed")
		return
	}

	q := url.Values{}
	if c.ParentID != nil {
		parent, err := p.catalog.Category(*c.ParentID)
		if err != nil {
			p.fail(w, r, err, "load parent category failed")
			return
		}
		q.Set("category", parent.Slug)
		q.Set("subcategory", c.Slug)
	} else {
		q.Set("category", c.Slug)
	}
	http.Redirect(w, r, "/products?"+q.Encode(), http.StatusMovedPermanently)
}
