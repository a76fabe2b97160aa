package catalog

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
	"watchstore/internal/store"
)

// memCategories is an in-memory CategoryRepository.
type memCategories struct {
	items    map[uuid.UUID]models.Category
	products *memProducts // consulted by DeleteIfUnused
}

func newMemCategories() *memCategories {
	return &memCategories{items: make(map[uuid.UUID]models.Category)}
}

func (m *memCategories) List() ([]models.Category, error) {
	out := make([]models.Category, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCategories) FindByID(id uuid.UUID) (*models.Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memCategories) SlugExists(slug string, exclude uuid.UUID) (bool, error) {
	for _, c := range m.items {
		if c.Slug == slug && c.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCategories) Create(c *models.Category) (*models.Category, error) {
	cp := *c
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	m.items[cp.ID] = cp
	return &cp, nil
}

func (m *memCategories) Update(c *models.Category) error {
	m.items[c.ID] = *c
	return nil
}

func (m *memCategories) SetActive(id uuid.UUID, active bool) error {
	c := m.items[id]
	c.IsActive = active
	m.items[id] = c
	return nil
}

func (m *memCategories) DeleteIfUnused(id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return models.ErrNotFound
	}
	for _, c := range m.items {
		if c.ParentID != nil && *c.ParentID == id {
			return models.ErrHasDependents
		}
	}
	if m.products != nil {
		for _, p := range m.products.items {
			if p.CategoryID != nil && *p.CategoryID == id {
				return models.ErrHasDependents
			}
		}
	}
	delete(m.items, id)
	return nil
}

func (m *memCategories) NextSortOrder(parentID *uuid.UUID) (int, error) {
	next := 1
	for _, c := range m.items {
		samePlace := (parentID == nil && c.ParentID == nil) ||
			(parentID != nil && c.ParentID != nil && *parentID == *c.ParentID)
		if samePlace && c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next, nil
}

// add inserts a category directly, bypassing the service.
func (m *memCategories) add(name string, parent *models.Category, active bool, sortOrder int) models.Category {
	c := models.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		IsActive:  active,
		SortOrder: sortOrder,
	}
	if parent == nil {
		c.IsMainCategory = true
	} else {
		c.ParentID = &parent.ID
	}
	m.items[c.ID] = c
	return c
}

// memProducts is an in-memory ProductRepository mirroring the SQL filter.
type memProducts struct {
	items []models.Product
	clock time.Time
	// finds records every filter passed to Find.
	finds []store.ProductFilter
}

func newMemProducts() *memProducts {
	return &memProducts{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memProducts) matches(p models.Product, f store.ProductFilter) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := []string{p.Name, p.Description, p.Brand, p.Model}
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), q) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.CategoryIDs != nil && (p.CategoryID == nil || !slices.Contains(f.CategoryIDs, *p.CategoryID)) {
		return false
	}
	return !slices.Contains(f.ExcludeIDs, p.ID)
}

func (m *memProducts) Find(f store.ProductFilter) ([]models.Product, error) {
	m.finds = append(m.finds, f)
	var out []models.Product
	for _, p := range m.items {
		if m.matches(p, f) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case models.SortPriceAsc:
			return a.Price.LessThan(b.Price)
		case models.SortPriceDesc:
			return a.Price.GreaterThan(b.Price)
		case models.SortNameAsc:
			return a.Name < b.Name
		case models.SortNameDesc:
			return a.Name > b.Name
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memProducts) Count(f store.ProductFilter) (int, error) {
	n := 0
	for _, p := range m.items {
		if m.matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) Brands(categoryIDs []uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.items {
		if m.matches(p, store.ProductFilter{CategoryIDs: categoryIDs}) && !seen[p.Brand] {
			seen[p.Brand] = true
			out = append(out, p.Brand)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memProducts) FindByID(id uuid.UUID) (*models.Product, error) {
	for _, p := range m.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memProducts) Create(p *models.Product) (*models.Product, error) {
	cp := *p
	cp.ID = uuid.New()
	m.clock = m.clock.Add(time.Minute)
	cp.CreatedAt = m.clock
	m.items = append(m.items, cp)
	return &cp, nil
}

func (m *memProducts) Update(p *models.Product) error {
	for i := range m.items {
		if m.items[i].ID == p.ID {
			m.items[i] = *p
		}
	}
	return nil
}

func (m *memProducts) Delete(id uuid.UUID) error {
	m.items = slices.DeleteFunc(m.items, func(p models.Product) bool { return p.ID == id })
	return nil
}

// add inserts an active product; each call is one minute newer than the last.
func (m *memProducts) add(name, brand, price string, cat *models.Category) models.Product {
	p := &models.Product{
		Name:     name,
		Brand:    brand,
		Price:    decimal.RequireFromString(price),
		Stock:    5,
		IsActive: true,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	created, _ := m.Create(p)
	return *created
}

// memCache is an in-memory NavCache.
type memCache struct {
	tree        []models.Category
	brands      []string
	invalidated int
}

func (c *memCache) NavTree(context.Context) ([]models.Category, bool) {
	return c.tree, c.tree != nil
}

func (c *memCache) SetNavTree(_ context.Context, tree []models.Category) { c.tree = tree }

func (c *memCache) Brands(context.Context) ([]string, bool) {
	return c.brands, c.brands != nil
}

func (c *memCache) SetBrands(_ context.Context, brands []string) { c.brands = brands }

func (c *memCache) Invalidate(context.Context) {
	c.tree, c.brands = nil, nil
	c.invalidated++
}

// fixture is a small shop: two main categories, one with an active and an
// inactive subcategory.
type fixture struct {
	svc      *Service
	cats     *memCategories
	prods    *memProducts
	cache    *memCache
	homme    models.Category
	femme    models.Category
	sport    models.Category
	retired  models.Category
	elegante models.Category
}

func newFixture() *fixture {
	cats := newMemCategories()
	prods := newMemProducts()
	cats.products = prods
	cache := &memCache{}

	f := &fixture{cats: cats, prods: prods, cache: cache}
	f.homme = cats.add("Homme", nil, true, 1)
	f.femme = cats.add("Femme", nil, true, 2)
	f.sport = cats.add("Montres Sport", &f.homme, true, 1)
	f.retired = cats.add("Anciennes", &f.homme, false, 2)
	f.elegante = cats.add("Elegantes", &f.femme, true, 1)
	f.svc = NewService(cats, prods, cache, 4)
	return f
}

func ids(ps []models.Product) []uuid.UUID {
	out := make([]uuid.UUID, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
