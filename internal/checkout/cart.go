// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package checkout implements the shopping cart and the cart to order
// transition, plus the order queries used by customers and the back office.
package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
)

// CartRepository persists carts and their lines. *store.CartStore
// satisfies it.
type CartRepository interface {
	FindOrCreate(userID uuid.UUID) (*models.Cart, error)
	AddItem(cartID, productID uuid.UUID, qty int) error
	SetQuantity(cartID, productID uuid.UUID, qty int) error
	RemoveItem(cartID, productID uuid.UUID) error
	Clear(cartID uuid.UUID) error
}

// ProductLookup finds products by id. *store.ProductStore satisfies it.
type ProductLookup interface {
	FindByID(id uuid.UUID) (*models.Product, error)
}

// CartService manages the single cart of each user. Every operation takes
// the authenticated user id explicitly.
type CartService struct {
	carts    CartRepository
	products ProductLookup
}

// NewCartService creates a cart service.
func NewCartService(carts CartRepository, products ProductLookup) *CartService {
	return &CartService{carts: carts, products: products}
}

// GetCart returns the user's cart with its lines, creating an empty cart on
// first access.
func (s *CartService) GetCart(userID uuid.UUID) (*models.Cart, error) {
	return s.carts.FindOrCreate(userID)
}

// AddProduct adds qty units of an active product. A quantity below one is
// treated as one; adding a product already in the cart increments its line.
func (s *CartService) AddProduct(userID, productID uuid.UUID, qty int) (*models.Cart, error) {
	p, err := s.products.FindByID(productID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, models.ErrNotFound
	}
	if qty < 1 {
		qty = 1
	}

	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.AddItem(cart.ID, productID, qty); err != nil {
		return nil, err
	}
	return s.carts.FindOrCreate(userID)
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
// Returns models.ErrNotFound when the product is not in the cart.
func (s *CartService) UpdateQuantity(userID, productID uuid.UUID, qty int) (*models.Cart, error) {
	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if cart.Line(productID) == nil {
		return nil, models.ErrNotFound
	}

	if qty <= 0 {
		err = s.carts.RemoveItem(cart.ID, productID)
	} else {
		err = s.carts.SetQuantity(cart.ID, productID, qty)
	}
	if err != nil {
		return nil, err
	}
	return s.carts.FindOrCreate(userID)
}

// RemoveProduct drops a line from the cart. Removing a product that is not
// in the cart is not an error.
func (s *CartService) RemoveProduct(userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(cart.ID, productID); err != nil {
		return nil, err
	}
	return s.carts.FindOrCreate(userID)
}

// Clear empties the cart. The cart itself is kept.
func (s *CartService) Clear(userID uuid.UUID) error {
	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return err
	}
	return s.carts.Clear(cart.ID)
}

// Total returns the cart total at current product prices.
func (s *CartService) Total(userID uuid.UUID) (decimal.Decimal, error) {
	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}
