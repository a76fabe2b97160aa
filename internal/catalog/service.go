// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the category tree and product browsing rules of the
// shop: subtree rollups, filter composition, related products, home page
// selections and the admin operations that keep the tree consistent.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"watchstore/internal/models"
	"watchstore/internal/store"
)

// CategoryRepository is the persistence the catalog needs for categories.
// *store.CategoryStore satisfies it.
type CategoryRepository interface {
	List() ([]models.Category, error)
	FindByID(id uuid.UUID) (*models.Category, error)
	SlugExists(slug string, exclude uuid.UUID) (bool, error)
	Create(c *models.Category) (*models.Category, error)
	Update(c *models.Category) error
	SetActive(id uuid.UUID, active bool) error
	DeleteIfUnused(id uuid.UUID) error
	NextSortOrder(parentID *uuid.UUID) (int, error)
}

// ProductRepository is the persistence the catalog needs for products.
// *store.ProductStore satisfies it.
type ProductRepository interface {
	Find(f store.ProductFilter) ([]models.Product, error)
	Count(f store.ProductFilter) (int, error)
	Brands(categoryIDs []uuid.UUID) ([]string, error)
	FindByID(id uuid.UUID) (*models.Product, error)
	Create(p *models.Product) (*models.Product, error)
	Update(p *models.Product) error
	Delete(id uuid.UUID) error
}

// NavCache caches navigation data between requests. *cache.CatalogCache
// satisfies it; a nil NavCache disables caching.
type NavCache interface {
	NavTree(ctx context.Context) ([]models.Category, bool)
	SetNavTree(ctx context.Context, tree []models.Category)
	Brands(ctx context.Context) ([]string, bool)
	SetBrands(ctx context.Context, brands []string)
	Invalidate(ctx context.Context)
}

// Service implements catalog browsing and administration.
type Service struct {
	categories   CategoryRepository
	products     ProductRepository
	cache        NavCache
	relatedLimit int
}

// NewService creates a catalog service. relatedLimit is the default size of
// related-product lists.
func NewService(categories CategoryRepository, products ProductRepository, cache NavCache, relatedLimit int) *Service {
	if relatedLimit <= 0 {
		relatedLimit = 4
	}
	return &Service{
		categories:   categories,
		products:     products,
		cache:        cache,
		relatedLimit: relatedLimit,
	}
}

// RelatedLimit returns the configured related-products list size.
func (s *Service) RelatedLimit() int { return s.relatedLimit }

// Tree loads all categories and indexes them.
func (s *Service) Tree() (*Tree, error) {
	all, err := s.categories.List()
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	return NewTree(all), nil
}

// CheckTree loads the categories and verifies their two-level shape.
func (s *Service) CheckTree() error {
	t, err := s.Tree()
	if err != nil {
		return err
	}
	return t.Validate()
}

// ListMainCategories returns the main categories ordered by sort order then
// name, active only unless includeInactive is set.
func (s *Service) ListMainCategories(includeInactive bool) ([]models.Category, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	return t.MainCategories(includeInactive), nil
}

// ListActiveChildren returns the active children of a category.
func (s *Service) ListActiveChildren(categoryID uuid.UUID) ([]models.Category, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	return t.ActiveChildren(categoryID), nil
}

// ResolveBySlug returns the active category with the exact slug, or
// models.ErrNotFound.
func (s *Service) ResolveBySlug(slug string) (*models.Category, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	c, ok := t.ResolveBySlug(slug)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

// CollectSubtreeIDs returns the category id plus the ids of its active
// descendants.
func (s *Service) CollectSubtreeIDs(categoryID uuid.UUID) ([]uuid.UUID, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	ids := t.SubtreeIDs(categoryID)
	if ids == nil {
		return nil, models.ErrNotFound
	}
	return ids, nil
}

// FindProducts returns the active products matching the criteria.
func (s *Service) FindProducts(c Criteria) ([]models.Product, error) {
	f, err := s.filterFor(c)
	if err != nil {
		return nil, err
	}
	return s.products.Find(f)
}

// FindProductsPage is FindProducts restricted to one page, with the total
// number of matches. Pages are 1-based; out-of-range pages are clamped.
func (s *Service) FindProductsPage(c Criteria, page, pageSize int) (*ProductPage, error) {
	f, err := s.filterFor(c)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(f)
	if err != nil {
		return nil, err
	}

	p := models.NewPagination(page, pageSize, total)
	f.Limit = p.PageSize
	f.Offset = p.Offset()
	items, err := s.products.Find(f)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Pagination: p, Products: items}, nil
}

// ListBrands returns the distinct brands of active products, optionally
// restricted to a category (subtree for a main category), in ascending
// order. The unrestricted list is cached.
func (s *Service) ListBrands(ctx context.Context, categoryID *uuid.UUID) ([]string, error) {
	if categoryID == nil {
		if s.cache != nil {
			if brands, ok := s.cache.Brands(ctx); ok {
				return brands, nil
			}
		}
		brands, err := s.products.Brands(nil)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.SetBrands(ctx, brands)
		}
		return brands, nil
	}

	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	ids := t.FilterIDs(*categoryID)
	if ids == nil {
		return nil, models.ErrNotFound
	}
	return s.products.Brands(ids)
}

// CountBySubtree counts the active products in a category and its active
// descendants.
func (s *Service) CountBySubtree(categoryID uuid.UUID) (int, error) {
	t, err := s.Tree()
	if err != nil {
		return 0, err
	}
	return s.countIn(t, categoryID)
}

func (s *Service) countIn(t *Tree, categoryID uuid.UUID) (int, error) {
	ids := t.SubtreeIDs(categoryID)
	if ids == nil {
		return 0, models.ErrNotFound
	}
	return s.products.Count(store.ProductFilter{CategoryIDs: ids})
}

// ActiveProduct returns a product visible to shoppers, or models.ErrNotFound
// when it does not exist or is inactive.
func (s *Service) ActiveProduct(id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, models.ErrNotFound
	}
	return p, nil
}

// FindRelated returns up to limit products similar to p. The first tier is
// the newest active products of p's category subtree; if that leaves room,
// the newest active products of the same brand fill the rest. p itself and
// duplicates are never returned.
func (s *Service) FindRelated(p *models.Product, limit int) ([]models.Product, error) {
	if limit <= 0 {
		return nil, nil
	}
	exclude := []uuid.UUID{p.ID}

	var related []models.Product
	if p.CategoryID != nil {
		t, err := s.Tree()
		if err != nil {
			return nil, err
		}
		if ids := t.SubtreeIDs(*p.CategoryID); ids != nil {
			related, err = s.products.Find(store.ProductFilter{
				CategoryIDs: ids,
				ExcludeIDs:  exclude,
				Limit:       limit,
			})
			if err != nil {
				return nil, fmt.Errorf("related by category: %w", err)
			}
		}
	}

	if len(related) >= limit || p.Brand == "" {
		return related, nil
	}

	for _, r := range related {
		exclude = append(exclude, r.ID)
	}
	sameBrand, err := s.products.Find(store.ProductFilter{
		Brand:      p.Brand,
		ExcludeIDs: exclude,
		Limit:      limit - len(related),
	})
	if err != nil {
		return nil, fmt.Errorf("related by brand: %w", err)
	}
	return append(related, sameBrand...), nil
}

// RecentProducts returns the newest active products.
func (s *Service) RecentProducts(limit int) ([]models.Product, error) {
	return s.products.Find(store.ProductFilter{Limit: limit})
}

// FeaturedGroup is a main category with its newest products.
type FeaturedGroup struct {
	Category models.Category
	Products []models.Product
}

// FeaturedByMainCategory returns, for every active main category that has
// products, its newest active products across the subtree.
func (s *Service) FeaturedByMainCategory(limit int) ([]FeaturedGroup, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}

	var groups []FeaturedGroup
	for _, main := range t.MainCategories(false) {
		items, err := s.products.Find(store.ProductFilter{
			CategoryIDs: t.SubtreeIDs(main.ID),
			Limit:       limit,
		})
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}
		groups = append(groups, FeaturedGroup{Category: main, Products: items})
	}
	return groups, nil
}

// PopularMainCategories returns the n active main categories with the most
// active products, ProductCount filled in. Ties keep the navigation order.
func (s *Service) PopularMainCategories(n int) ([]models.Category, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}

	mains := t.MainCategories(false)
	for i := range mains {
		count, err := s.countIn(t, mains[i].ID)
		if err != nil {
			return nil, err
		}
		mains[i].ProductCount = count
	}
	sort.SliceStable(mains, func(i, j int) bool {
		return mains[i].ProductCount > mains[j].ProductCount
	})
	if n >= 0 && len(mains) > n {
		mains = mains[:n]
	}
	return mains, nil
}

// NavTree returns the active main categories with their active children
// nested, each carrying its subtree product count. The result is cached.
func (s *Service) NavTree(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		if tree, ok := s.cache.NavTree(ctx); ok {
			return tree, nil
		}
	}

	t, err := s.Tree()
	if err != nil {
		return nil, err
	}

	mains := t.MainCategories(false)
	for i := range mains {
		if mains[i].ProductCount, err = s.countIn(t, mains[i].ID); err != nil {
			return nil, err
		}
		children := t.ActiveChildren(mains[i].ID)
		for j := range children {
			if children[j].ProductCount, err = s.countIn(t, children[j].ID); err != nil {
				return nil, err
			}
		}
		mains[i].Children = children
	}

	if s.cache != nil {
		s.cache.SetNavTree(ctx, mains)
	}
	return mains, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
