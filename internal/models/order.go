// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is one of the five fixed order states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the fixed statuses. Any valid status
// may be replaced by any other; no transition table is enforced.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ShippingDetails is the delivery address captured at checkout.
type ShippingDetails struct {
	FirstName  string  `json:"first_name" validate:"required,max=50"`
	LastName   string  `json:"last_name" validate:"required,max=50"`
	Address    string  `json:"address" validate:"required,max=255"`
	PostalCode string  `json:"postal_code" validate:"required,min=4,max=10"`
	City       string  `json:"city" validate:"required,max=100"`
	Phone      string  `json:"phone" validate:"required,max=20"`
	Notes      *string `json:"notes,omitempty"`
}

// Order is an immutable purchase record; only Status changes after creation.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	Number    int64           `json:"number"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Shipping  ShippingDetails `json:"shipping"`
	Items     []OrderItem     `json:"items,omitempty"`
}

// Reference returns the order number zero-padded to six digits.
func (o *Order) Reference() string {
	return fmt.Sprintf("%06d", o.Number)
}

// OrderItem snapshots the price and name of a product at checkout. Both
// survive later product edits and deletion; ProductID becomes nil then.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   *uuid.UUID      `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductName string          `json:"product_name,omitempty"`
}

// Subtotal returns the snapshot price times quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
