// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"watchstore/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, image, is_active, sort_order,
	is_main_category, main_category_type, parent_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.IsActive, &c.SortOrder,
		&c.IsMainCategory, &c.MainCategoryType, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// slugTakenError is returned when the slug derived from a name already exists.
func slugTakenError(slug string) error {
	return models.NewValidationError("name", fmt.Sprintf("a category with slug %q already exists", slug))
}

// List returns every category, active or not, ordered by sort_order then name.
// The catalog builds its in-memory tree from this flat list.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// SlugExists reports whether another category already uses slug.
// exclude may be uuid.Nil when checking for a new category.
func (s *CategoryStore) SlugExists(slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (name, slug, description, image, is_active, sort_order,
			is_main_category, main_category_type, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Image, c.IsActive, c.SortOrder,
		c.IsMainCategory, c.MainCategoryType, c.ParentID,
	)
	result, err := scanCategory(row)
	if isUniqueViolation(err, "categories_slug_key") {
		return nil, slugTakenError(c.Slug)
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, slug = $2, description = $3, image = $4, is_active = $5,
			sort_order = $6, is_main_category = $7, main_category_type = $8,
			parent_id = $9, updated_at = NOW()
		WHERE id = $10
	`, c.Name, c.Slug, c.Description, c.Image, c.IsActive,
		c.SortOrder, c.IsMainCategory, c.MainCategoryType,
		c.ParentID, c.ID)
	if isUniqueViolation(err, "categories_slug_key") {
		return slugTakenError(c.Slug)
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// SetActive flips the visibility flag of a category.
func (s *CategoryStore) SetActive(id uuid.UUID, active bool) error {
	_, err := s.db.Exec(`
		UPDATE categories SET is_active = $1, updated_at = NOW() WHERE id = $2
	`, active, id)
	if err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	return nil
}

// DeleteIfUnused removes a category that owns no subcategories and no
// products. Otherwise it returns models.ErrHasDependents and nothing changes.
// The row is locked for the duration so a concurrent insert cannot slip a
// dependent in between the check and the delete.
func (s *CategoryStore) DeleteIfUnused(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRow(`SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}

	var children, products int
	err = tx.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM categories WHERE parent_id = $1),
			(SELECT COUNT(*) FROM products WHERE category_id = $1)
	`, id).Scan(&children, &products)
	if err != nil {
		return fmt.Errorf("count category dependents: %w", err)
	}
	if children > 0 || products > 0 {
		return models.ErrHasDependents
	}

	if _, err := tx.Exec(`DELETE FROM categories WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrHasDependents
		}
		return fmt.Errorf("delete category: %w", err)
	}

	return tx.Commit()
}

// NextSortOrder returns the next sort_order value for a given parent.
// A nil parent addresses the main categories.
func (s *CategoryStore) NextSortOrder(parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRow(`SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL`).Scan(&maxOrder)
	} else {
		err = s.db.QueryRow(`SELECT MAX(sort_order) FROM categories WHERE parent_id = $1`, *parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 1, nil
}
