// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"watchstore/internal/models"
)

// Tree is an in-memory index over the flat category table. Categories are
// stored once by id; parent links are plain ids and children are found
// through a reverse index, so there is no object graph to keep in sync.
type Tree struct {
	nodes    map[uuid.UUID]models.Category
	bySlug   map[string]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
	mains    []uuid.UUID
}

// NewTree indexes a flat list of categories. Children and main categories
// are ordered by sort order, then name.
func NewTree(categories []models.Category) *Tree {
	t := &Tree{
		nodes:    make(map[uuid.UUID]models.Category, len(categories)),
		bySlug:   make(map[string]uuid.UUID, len(categories)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range categories {
		c.Children = nil
		c.ProductCount = 0
		t.nodes[c.ID] = c
		t.bySlug[c.Slug] = c.ID
	}
	for _, c := range t.nodes {
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
		if c.IsMainCategory {
			t.mains = append(t.mains, c.ID)
		}
	}

	t.sortIDs(t.mains)
	for _, ids := range t.children {
		t.sortIDs(ids)
	}
	return t
}

func (t *Tree) sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
}

func (t *Tree) collect(ids []uuid.UUID, activeOnly bool) []models.Category {
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		c := t.nodes[id]
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Len returns the number of indexed categories.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the category with the given id.
func (t *Tree) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// All returns every category, mains first, each followed by its children.
// Orphans (no parent, not main) come last. Useful for admin listings and
// <select> inputs.
func (t *Tree) All() []models.Category {
	out := make([]models.Category, 0, len(t.nodes))
	seen := make(map[uuid.UUID]bool, len(t.nodes))
	for _, id := range t.mains {
		out = append(out, t.nodes[id])
		seen[id] = true
		for _, cid := range t.children[id] {
			out = append(out, t.nodes[cid])
			seen[cid] = true
		}
	}
	var rest []uuid.UUID
	for id := range t.nodes {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	t.sortIDs(rest)
	return append(out, t.collect(rest, false)...)
}

// MainCategories returns the top-level categories, active ones only unless
// includeInactive is set.
func (t *Tree) MainCategories(includeInactive bool) []models.Category {
	return t.collect(t.mains, !includeInactive)
}

// Children returns every direct child of a category, active or not.
func (t *Tree) Children(id uuid.UUID) []models.Category {
	return t.collect(t.children[id], false)
}

// ActiveChildren returns the active direct children of a category.
func (t *Tree) ActiveChildren(id uuid.UUID) []models.Category {
	return t.collect(t.children[id], true)
}

// ResolveBySlug finds an active category by its exact slug.
func (t *Tree) ResolveBySlug(slug string) (models.Category, bool) {
	id, ok := t.bySlug[slug]
	if !ok {
		return models.Category{}, false
	}
	c := t.nodes[id]
	if !c.IsActive {
		return models.Category{}, false
	}
	return c, true
}

// SubtreeIDs returns the id of the category followed by the ids of all its
// active descendants. The category itself is included even when inactive.
// An unknown id yields nil.
func (t *Tree) SubtreeIDs(id uuid.UUID) []uuid.UUID {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	ids := []uuid.UUID{id}
	for _, cid := range t.children[id] {
		if t.nodes[cid].IsActive {
			ids = append(ids, t.SubtreeIDs(cid)...)
		}
	}
	return ids
}

// FilterIDs returns the category ids a product filter on this category
// should match: the whole active subtree for a main category, the single
// id otherwise.
func (t *Tree) FilterIDs(id uuid.UUID) []uuid.UUID {
	c, ok := t.nodes[id]
	if !ok {
		return nil
	}
	if c.IsMainCategory {
		return t.SubtreeIDs(id)
	}
	return []uuid.UUID{id}
}

// Validate checks the two-level shape: main categories have no parent, and
// every parent exists and is a main category.
func (t *Tree) Validate() error {
	for _, c := range t.nodes {
		if c.IsMainCategory && c.ParentID != nil {
			return fmt.Errorf("category %q: main category has a parent", c.Slug)
		}
		if c.ParentID == nil {
			continue
		}
		p, ok := t.nodes[*c.ParentID]
		if !ok {
			return fmt.Errorf("category %q: parent %s does not exist", c.Slug, *c.ParentID)
		}
		if !p.IsMainCategory {
			return fmt.Errorf("category %q: parent %q is not a main category", c.Slug, p.Slug)
		}
	}
	return nil
}
