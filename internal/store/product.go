// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"watchstore/internal/models"
)

// ProductStore handles all product-related database operations.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// ProductFilter narrows a product listing. Every set field is ANDed.
// A nil CategoryIDs slice means "any category"; an empty non-nil slice
// matches nothing.
type ProductFilter struct {
	Search          string
	Brand           string
	CategoryIDs     []uuid.UUID
	ExcludeIDs      []uuid.UUID
	IncludeInactive bool
	Sort            models.ProductSort
	Limit           int
	Offset          int
}

const productColumns = `id, name, description, price, brand, model, stock, image,
	is_active, category_id, created_at`

// scanProduct scans a row into a Product struct.
func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Brand, &p.Model, &p.Stock, &p.Image,
		&p.IsActive, &p.CategoryID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// predicate accumulates WHERE clauses and their positional arguments.
type predicate struct {
	clauses []string
	args    []any
}

func (p *predicate) arg(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}

func (p *predicate) add(clause string) {
	p.clauses = append(p.clauses, clause)
}

// inList renders "col IN ($n, ...)" or a false literal for an empty list.
func (p *predicate) inList(col string, ids []uuid.UUID, negate bool) {
	if len(ids) == 0 {
		if !negate {
			p.add("FALSE")
		}
		return
	}
	holders := make([]string, len(ids))
	for i, id := range ids {
		holders[i] = p.arg(id)
	}
	op := " IN ("
	if negate {
		op = " NOT IN ("
	}
	p.add(col + op + strings.Join(holders, ", ") + ")")
}

func (p *predicate) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func buildProductPredicate(f ProductFilter) *predicate {
	p := &predicate{}
	if !f.IncludeInactive {
		p.add("is_active = TRUE")
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		ph := p.arg("%" + escapeLike(search) + "%")
		p.add("(name ILIKE " + ph + " OR description ILIKE " + ph +
			" OR brand ILIKE " + ph + " OR model ILIKE " + ph + ")")
	}
	if f.Brand != "" {
		p.add("brand = " + p.arg(f.Brand))
	}
	if f.CategoryIDs != nil {
		p.inList("category_id", f.CategoryIDs, false)
	}
	if len(f.ExcludeIDs) > 0 {
		p.inList("id", f.ExcludeIDs, true)
	}
	return p
}

func productOrderBy(sort models.ProductSort) string {
	switch sort {
	case models.SortPriceAsc:
		return " ORDER BY price ASC, id"
	case models.SortPriceDesc:
		return " ORDER BY price DESC, id"
	case models.SortNameAsc:
		return " ORDER BY name ASC, id"
	case models.SortNameDesc:
		return " ORDER BY name DESC, id"
	default:
		return " ORDER BY created_at DESC, id"
	}
}

// Find returns the products matching the filter in the requested order.
func (s *ProductStore) Find(f ProductFilter) ([]models.Product, error) {
	p := buildProductPredicate(f)
	query := `SELECT ` + productColumns + ` FROM products` + p.where() + productOrderBy(f.Sort)
	if f.Limit > 0 {
		query += " LIMIT " + p.arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + p.arg(f.Offset)
	}

	rows, err := s.db.Query(query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	var items []models.Product
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *prod)
	}
	return items, rows.Err()
}

// Count returns how many products match the filter. Sort, Limit and
// Offset are ignored.
func (s *ProductStore) Count(f ProductFilter) (int, error) {
	p := buildProductPredicate(f)
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM products`+p.where(), p.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Brands returns the distinct brands of active products, optionally
// restricted to a set of categories, in ascending order.
func (s *ProductStore) Brands(categoryIDs []uuid.UUID) ([]string, error) {
	p := buildProductPredicate(ProductFilter{CategoryIDs: categoryIDs})
	rows, err := s.db.Query(`SELECT DISTINCT brand FROM products`+p.where()+` ORDER BY brand`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// FindByID retrieves a product by ID regardless of its active flag.
// Returns nil if not found.
func (s *ProductStore) FindByID(id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// Create inserts a new product and returns it.
func (s *ProductStore) Create(p *models.Product) (*models.Product, error) {
	row := s.db.QueryRow(`
		INSERT INTO products (name, description, price, brand, model, stock, image, is_active, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		p.Name, p.Description, p.Price, p.Brand, p.Model, p.Stock, p.Image, p.IsActive, p.CategoryID,
	)
	result, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return result, nil
}

// Update modifies an existing product. Stock is written as given; the
// checkout path decrements it through OrderStore instead.
func (s *ProductStore) Update(p *models.Product) error {
	_, err := s.db.Exec(`
		UPDATE products SET
			name = $1, description = $2, price = $3, brand = $4, model = $5,
			stock = $6, image = $7, is_active = $8, category_id = $9
		WHERE id = $10
	`, p.Name, p.Description, p.Price, p.Brand, p.Model,
		p.Stock, p.Image, p.IsActive, p.CategoryID, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product. Cart lines referencing it are removed and
// order lines keep their snapshot with a NULL product reference.
func (s *ProductStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
