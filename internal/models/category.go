// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node of the two-level catalog hierarchy. Main categories
// have no parent; subcategories point at exactly one main category.
type Category struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	Image            *string    `json:"image,omitempty"`
	IsActive         bool       `json:"is_active"`
	SortOrder        int        `json:"sort_order"`
	IsMainCategory   bool       `json:"is_main_category"`
	MainCategoryType *string    `json:"main_category_type,omitempty"`
	ParentID         *uuid.UUID `json:"parent_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Virtual fields populated by the catalog service.
	Children     []Category `json:"children,omitempty"`
	ProductCount int        `json:"product_count"`
}

// Main category types offered by the admin forms.
const (
	MainTypeMen    = "homme"
	MainTypeWomen  = "femme"
	MainTypeKids   = "enfant"
	MainTypeUnisex = "mixte"
)

// MainCategoryTypes lists the accepted MainCategoryType values in display order.
var MainCategoryTypes = []string{MainTypeMen, MainTypeWomen, MainTypeKids, MainTypeUnisex}
