// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package checkout

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"watchstore/internal/models"
	"watchstore/internal/validation"
)

// OrderPageSize is the default size of the back-office order list.
const OrderPageSize = 10

// OrderRepository persists orders. *store.OrderStore satisfies it.
// PlaceOrder must run the whole cart to order transition in one
// transaction.
type OrderRepository interface {
	PlaceOrder(cartID, userID uuid.UUID, shipping models.ShippingDetails) (*models.Order, error)
	FindByID(id uuid.UUID) (*models.Order, error)
	ListByUser(userID uuid.UUID) ([]models.Order, error)
	List(status models.OrderStatus, limit, offset int) ([]models.Order, error)
	Count(status models.OrderStatus) (int, error)
	CountByStatus() (map[models.OrderStatus]int, error)
	UpdateStatus(id uuid.UUID, status models.OrderStatus) error
}

// OrderService turns carts into orders and serves order queries.
type OrderService struct {
	orders OrderRepository
	carts  CartRepository
}

// NewOrderService creates an order service.
func NewOrderService(orders OrderRepository, carts CartRepository) *OrderService {
	return &OrderService{orders: orders, carts: carts}
}

func normalizeShipping(d *models.ShippingDetails) {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Address = strings.TrimSpace(d.Address)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.City = strings.TrimSpace(d.City)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Notes != nil {
		n := strings.TrimSpace(*d.Notes)
		if n == "" {
			d.Notes = nil
		} else {
			d.Notes = &n
		}
	}
}

// PlaceOrder converts the user's cart into a pending order. Shipping
// details are validated first; an empty cart yields models.ErrEmptyCart.
// Any other failure is reported as models.ErrTransactionFailure, in which
// case neither the cart nor stock has changed.
func (s *OrderService) PlaceOrder(userID uuid.UUID, shipping models.ShippingDetails) (*models.Order, error) {
	normalizeShipping(&shipping)
	if err := validation.Struct(shipping); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransactionFailure, err)
	}
	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	order, err := s.orders.PlaceOrder(cart.ID, userID, shipping)
	if err != nil {
		// The cart may have been emptied by a concurrent checkout.
		if errors.Is(err, models.ErrEmptyCart) {
			return nil, err
		}
		slog.Error("place order failed", "error", err, "user_id", userID, "cart_id", cart.ID)
		return nil, fmt.Errorf("%w: %w", models.ErrTransactionFailure, err)
	}

	slog.Info("order placed",
		"order_id", order.ID,
		"number", order.Reference(),
		"user_id", userID,
		"total", order.Total.StringFixed(2),
		"items", len(order.Items),
	)
	return order, nil
}

// OrderFor returns one of the user's orders with its items. Another user's
// order yields models.ErrForbidden.
func (s *OrderService) OrderFor(userID, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.Order(orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, models.ErrForbidden
	}
	return o, nil
}

// Order returns any order with its items, for the back office.
func (s *OrderService) Order(orderID uuid.UUID) (*models.Order, error) {
	o, err := s.orders.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, models.ErrNotFound
	}
	return o, nil
}

// History returns the user's orders, newest first.
func (s *OrderService) History(userID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByUser(userID)
}

// OrderPage is one page of the back-office order list.
type OrderPage struct {
	models.Pagination
	Status models.OrderStatus
	Orders []models.Order
}

// ListOrders pages through all orders newest first, optionally restricted
// to one status. An unknown status is ignored.
func (s *OrderService) ListOrders(status models.OrderStatus, page, pageSize int) (*OrderPage, error) {
	if !status.Valid() {
		status = ""
	}
	if pageSize <= 0 {
		pageSize = OrderPageSize
	}

	total, err := s.orders.Count(status)
	if err != nil {
		return nil, err
	}
	p := models.NewPagination(page, pageSize, total)
	orders, err := s.orders.List(status, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	return &OrderPage{Pagination: p, Status: status, Orders: orders}, nil
}

// RecentOrders returns the newest orders, for the dashboard.
func (s *OrderService) RecentOrders(limit int) ([]models.Order, error) {
	return s.orders.List("", limit, 0)
}

// CountByStatus returns the number of orders in each status.
func (s *OrderService) CountByStatus() (map[models.OrderStatus]int, error) {
	return s.orders.CountByStatus()
}

// UpdateStatus sets an order's status. Any of the fixed statuses may
// replace any other.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, status models.OrderStatus) error {
	if !status.Valid() {
		return models.NewValidationError("status", "Unknown order status.")
	}
	if err := s.orders.UpdateStatus(orderID, status); err != nil {
		return err
	}
	slog.Info("order status updated", "order_id", orderID, "status", status)
	return nil
}
