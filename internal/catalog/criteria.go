package catalog

import (
	"strings"

	"github.com/google/uuid"

	"watchstore/internal/models"
	"watchstore/internal/store"
)

// Criteria is an immutable product search built by the caller. Zero values
// mean "no restriction"; an all-blank search is the same as no search.
type Criteria struct {
	Search     string
	Brand      string
	CategoryID *uuid.UUID
	Sort       models.ProductSort
}

// IsZero reports whether the criteria restrict nothing.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && c.Brand == "" && c.CategoryID == nil
}

// filterFor translates criteria into a store filter, expanding a main
// category to its active subtree.
func (s *Service) filterFor(c Criteria) (store.ProductFilter, error) {
	f := store.ProductFilter{
		Search: strings.TrimSpace(c.Search),
		Brand:  c.Brand,
		Sort:   c.Sort,
	}
	if f.Sort == "" {
		f.Sort = models.SortDefault
	}
	if c.CategoryID != nil {
		t, err := s.Tree()
		if err != nil {
			return f, err
		}
		ids := t.FilterIDs(*c.CategoryID)
		if ids == nil {
			return f, models.ErrNotFound
		}
		f.CategoryIDs = ids
	}
	return f, nil
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	models.Pagination
	Products []models.Product
}
