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

// CartStore handles carts and their lines. Each user owns exactly one cart.
type CartStore struct {
	db *sql.DB
}

// NewCartStore creates a new CartStore with the given database connection.
func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

// FindOrCreate returns the user's cart with its lines, creating an empty
// cart on first access.
func (s *CartStore) FindOrCreate(userID uuid.UUID) (*models.Cart, error) {
	c := &models.Cart{}
	err := s.db.QueryRow(`
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("find or create cart: %w", err)
	}

	items, err := s.Items(c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

// Items returns the lines of a cart joined with their live product data,
// in the order they were first added.
func (s *CartStore) Items(cartID uuid.UUID) ([]models.CartItem, error) {
	rows, err := s.db.Query(`
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
		       p.id, p.name, p.description, p.price, p.brand, p.model, p.stock, p.image,
		       p.is_active, p.category_id, p.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var it models.CartItem
		p := &it.Product
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Brand, &p.Model, &p.Stock, &p.Image,
			&p.IsActive, &p.CategoryID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItem adds qty units of a product to the cart. An existing line for the
// same product is incremented; the unique (cart_id, product_id) index
// guarantees a single line per product.
func (s *CartStore) AddItem(cartID, productID uuid.UUID, qty int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if err := touchCart(tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetQuantity overwrites the quantity of an existing line. It is a no-op
// when the product is not in the cart.
func (s *CartStore) SetQuantity(cartID, productID uuid.UUID, qty int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND product_id = $3
	`, qty, cartID, productID)
	if err != nil {
		return fmt.Errorf("set cart item quantity: %w", err)
	}
	if err := touchCart(tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveItem deletes the line for a product, if present.
func (s *CartStore) RemoveItem(cartID, productID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if err := touchCart(tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes every line but keeps the cart itself.
func (s *CartStore) Clear(cartID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearCart(tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// clearCart empties a cart inside an existing transaction.
func clearCart(tx *sql.Tx, cartID uuid.UUID) error {
	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return touchCart(tx, cartID)
}

func touchCart(tx *sql.Tx, cartID uuid.UUID) error {
	if _, err := tx.Exec(`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}
