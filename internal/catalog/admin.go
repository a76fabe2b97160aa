// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
	"watchstore/internal/slug"
	"watchstore/internal/store"
	"watchstore/internal/validation"
)

// CategoryInput carries the editable fields of a category form.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Image       *string `json:"image"`
	IsActive    bool    `json:"is_active"`
	// SortOrder nil appends the category after its siblings.
	SortOrder *int `json:"sort_order" validate:"omitempty,gte=0"`
	// MainCategoryType applies to main categories only.
	MainCategoryType string `json:"main_category_type"`
	// ParentID applies to subcategories only and must name a main category.
	ParentID *uuid.UUID `json:"parent_id"`
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.MainCategoryType = strings.TrimSpace(in.MainCategoryType)
}

// slugFor derives the slug of a category name and checks it is free.
func (s *Service) slugFor(name string, self uuid.UUID) (string, error) {
	sl := slug.Generate(name)
	if !slug.Valid(sl) {
		return "", models.NewValidationError("name", "Name must contain letters or digits.")
	}
	// Symbols such as "&" expand when slugged, so a short name can still overflow.
	if len(sl) > slug.MaxLength {
		return "", models.NewValidationError("name", "Name is too long once converted to a URL. Shorten it.")
	}
	taken, err := s.categories.SlugExists(sl, self)
	if err != nil {
		return "", err
	}
	if taken {
		return "", models.NewValidationError("name", "Another category already uses the slug \""+sl+"\". Choose a different name.")
	}
	return sl, nil
}

func validMainType(t string) bool {
	return slices.Contains(models.MainCategoryTypes, t)
}

// requireMainParent checks that id names an existing main category.
func (s *Service) requireMainParent(id *uuid.UUID) error {
	if id == nil {
		return models.NewValidationError("parent_id", "A subcategory needs a main category.")
	}
	parent, err := s.categories.FindByID(*id)
	if err != nil {
		return err
	}
	if parent == nil || !parent.IsMainCategory {
		return models.NewValidationError("parent_id", "The parent must be a main category.")
	}
	return nil
}

// CreateMainCategory adds a top-level category.
func (s *Service) CreateMainCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !validMainType(in.MainCategoryType) {
		return nil, models.NewValidationError("main_category_type", "Choose one of: "+strings.Join(models.MainCategoryTypes, ", ")+".")
	}
	sl, err := s.slugFor(in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	c := &models.Category{
		Name:             in.Name,
		Slug:             sl,
		Description:      in.Description,
		Image:            in.Image,
		IsActive:         in.IsActive,
		IsMainCategory:   true,
		MainCategoryType: &in.MainCategoryType,
	}
	if c.SortOrder, err = s.sortOrder(in.SortOrder, nil); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

// CreateSubcategory adds a category under an existing main category.
func (s *Service) CreateSubcategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requireMainParent(in.ParentID); err != nil {
		return nil, err
	}
	sl, err := s.slugFor(in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	c := &models.Category{
		Name:        in.Name,
		Slug:        sl,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    in.IsActive,
		ParentID:    in.ParentID,
	}
	if c.SortOrder, err = s.sortOrder(in.SortOrder, in.ParentID); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *Service) sortOrder(given *int, parentID *uuid.UUID) (int, error) {
	if given != nil {
		return *given, nil
	}
	return s.categories.NextSortOrder(parentID)
}

// Category returns any category by id, active or not.
func (s *Service) Category(id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, models.ErrNotFound
	}
	return c, nil
}

// UpdateCategory edits a category. The slug is regenerated from the new
// name. A main category stays main and a subcategory stays a subcategory,
// though it may move to another main category. A nil Image keeps the
// current one.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	c, err := s.Category(id)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if c.IsMainCategory {
		if !validMainType(in.MainCategoryType) {
			return nil, models.NewValidationError("main_category_type", "Choose one of: "+strings.Join(models.MainCategoryTypes, ", ")+".")
		}
		c.MainCategoryType = &in.MainCategoryType
	} else if in.ParentID != nil {
		if *in.ParentID == c.ID {
			return nil, models.NewValidationError("parent_id", "A category cannot be its own parent.")
		}
		if err := s.requireMainParent(in.ParentID); err != nil {
			return nil, err
		}
		c.ParentID = in.ParentID
	}

	sl, err := s.slugFor(in.Name, c.ID)
	if err != nil {
		return nil, err
	}

	c.Name = in.Name
	c.Slug = sl
	c.Description = in.Description
	c.IsActive = in.IsActive
	if in.Image != nil {
		c.Image = in.Image
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}

	if err := s.categories.Update(c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// ToggleCategory flips the active flag and returns the updated category.
func (s *Service) ToggleCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.Category(id)
	if err != nil {
		return nil, err
	}
	c.IsActive = !c.IsActive
	if err := s.categories.SetActive(c.ID, c.IsActive); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// DeleteCategory removes a category that has no children and no products.
// Otherwise it returns models.ErrHasDependents and nothing changes.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.DeleteIfUnused(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SubcategoriesOf returns the active subcategories of a main category, for
// the cascading select of the product form.
func (s *Service) SubcategoriesOf(mainID uuid.UUID) ([]models.Category, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}
	main, ok := t.Get(mainID)
	if !ok || !main.IsMainCategory {
		return nil, models.ErrNotFound
	}
	return t.ActiveChildren(mainID), nil
}

// CategoryListFilter narrows the admin category screen.
type CategoryListFilter struct {
	Search         string     // substring of name or description, case-insensitive
	Status         string     // "", "active" or "inactive"; applies to subcategories
	MainCategoryID *uuid.UUID // restrict subcategories to one parent
	MainStatus     string     // "active" (default), "inactive" or "all"; applies to mains
}

// CategoryListing is the data of the admin category screen.
type CategoryListing struct {
	MainCategories       []models.Category
	ActiveMainCategories []models.Category
	Subcategories        []models.Category
}

// AdminCategories lists main categories by MainStatus and the subcategories
// of active main categories matching the other filters.
func (s *Service) AdminCategories(f CategoryListFilter) (*CategoryListing, error) {
	t, err := s.Tree()
	if err != nil {
		return nil, err
	}

	listing := &CategoryListing{ActiveMainCategories: t.MainCategories(false)}
	switch f.MainStatus {
	case "all":
		listing.MainCategories = t.MainCategories(true)
	case "inactive":
		for _, c := range t.MainCategories(true) {
			if !c.IsActive {
				listing.MainCategories = append(listing.MainCategories, c)
			}
		}
	default:
		listing.MainCategories = listing.ActiveMainCategories
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, main := range listing.ActiveMainCategories {
		if f.MainCategoryID != nil && *f.MainCategoryID != main.ID {
			continue
		}
		for _, sub := range t.Children(main.ID) {
			if search != "" &&
				!strings.Contains(strings.ToLower(sub.Name), search) &&
				!strings.Contains(strings.ToLower(sub.Description), search) {
				continue
			}
			if (f.Status == "active" && !sub.IsActive) || (f.Status == "inactive" && sub.IsActive) {
				continue
			}
			listing.Subcategories = append(listing.Subcategories, sub)
		}
	}
	return listing, nil
}

// ProductInput carries the editable fields of a product form.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price"`
	Brand       string          `json:"brand" validate:"required,max=100"`
	Model       string          `json:"model" validate:"max=100"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    bool            `json:"is_active"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	// Image nil keeps the current image on update.
	Image *string `json:"image"`
}

var maxPrice = decimal.RequireFromString("99999999.99")

func (s *Service) checkProduct(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	in.Description = strings.TrimSpace(in.Description)

	err := validation.Struct(in)
	ve, isValidation := models.AsValidation(err)
	if err != nil && !isValidation {
		return err
	}
	if ve == nil {
		ve = &models.ValidationError{Fields: map[string]string{}}
	}

	if !in.Price.IsPositive() {
		ve.Fields["price"] = "Must be greater than 0."
	} else if in.Price.GreaterThan(maxPrice) || !in.Price.Equal(in.Price.Round(2)) {
		ve.Fields["price"] = "Must be a valid amount with at most 2 decimals."
	}

	if in.CategoryID != nil {
		c, err := s.categories.FindByID(*in.CategoryID)
		if err != nil {
			return err
		}
		if c == nil {
			ve.Fields["category_id"] = "Unknown category."
		}
	}

	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// Product returns any product by id, active or not.
func (s *Service) Product(id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrNotFound
	}
	return p, nil
}

// CreateProduct adds a product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.checkProduct(&in); err != nil {
		return nil, err
	}
	p, err := s.products.Create(&models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Brand:       in.Brand,
		Model:       in.Model,
		Stock:       in.Stock,
		Image:       in.Image,
		IsActive:    in.IsActive,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// UpdateProduct edits a product.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.Product(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkProduct(&in); err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Brand = in.Brand
	p.Model = in.Model
	p.Stock = in.Stock
	p.IsActive = in.IsActive
	p.CategoryID = in.CategoryID
	if in.Image != nil {
		p.Image = in.Image
	}

	if err := s.products.Update(p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// DeleteProduct removes a product. Past orders keep their line snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Product(id); err != nil {
		return err
	}
	if err := s.products.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// AdminProducts lists products for the back office. With no criteria it
// returns every product, active or not, newest first; otherwise it applies
// the shopper filter rules, inactive products included.
func (s *Service) AdminProducts(c Criteria, page, pageSize int) (*ProductPage, error) {
	f := store.ProductFilter{IncludeInactive: true, Sort: models.SortDefault}
	if !c.IsZero() || c.Sort != "" {
		var err error
		if f, err = s.filterFor(c); err != nil {
			return nil, err
		}
		f.IncludeInactive = true
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
