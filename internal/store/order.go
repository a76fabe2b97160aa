// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
)

// OrderStore handles orders, their lines and the cart-to-order checkout.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates a new OrderStore with the given database connection.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, number, user_id, total, status, first_name, last_name,
	address, postal_code, city, phone, notes, created_at`

// scanOrder scans a row into an Order struct (without its items).
func scanOrder(scanner interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	sh := &o.Shipping
	err := scanner.Scan(
		&o.ID, &o.Number, &o.UserID, &o.Total, &o.Status,
		&sh.FirstName, &sh.LastName, &sh.Address, &sh.PostalCode, &sh.City, &sh.Phone, &sh.Notes,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// checkoutLine is a cart line read inside the checkout transaction.
type checkoutLine struct {
	productID uuid.UUID
	name      string
	price     decimal.Decimal
	quantity  int
}

// PlaceOrder turns the user's cart into a pending order in one transaction:
// the order row, one line per cart line with the current price as snapshot,
// the stock decrements and the cart clear either all commit or none do.
// Stock is not floored at zero; oversold products are logged.
func (s *OrderStore) PlaceOrder(cartID, userID uuid.UUID, shipping models.ShippingDetails) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Serialises checkouts of the same cart so a double submit sees an empty cart.
	var locked uuid.UUID
	err = tx.QueryRow(`SELECT id FROM carts WHERE id = $1 AND user_id = $2 FOR UPDATE`, cartID, userID).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := readCheckoutLines(tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}

	row := tx.QueryRow(`
		INSERT INTO orders (user_id, total, status, first_name, last_name,
			address, postal_code, city, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		userID, total, models.OrderStatusPending, shipping.FirstName, shipping.LastName,
		shipping.Address, shipping.PostalCode, shipping.City, shipping.Phone, shipping.Notes,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, l := range lines {
		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   &l.productID,
			Quantity:    l.quantity,
			Price:       l.price,
			ProductName: l.name,
		}
		err := tx.QueryRow(`
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		order.Items = append(order.Items, item)

		var stock int
		err = tx.QueryRow(`
			UPDATE products SET stock = stock - $1 WHERE id = $2 RETURNING stock
		`, l.quantity, l.productID).Scan(&stock)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if stock < 0 {
			slog.Warn("stock below zero", "product_id", l.productID, "stock", stock, "order_id", order.ID)
		}
	}

	if err := clearCart(tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

func readCheckoutLines(tx *sql.Tx, cartID uuid.UUID) ([]checkoutLine, error) {
	rows, err := tx.Query(`
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.productID, &l.name, &l.price, &l.quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// FindByID retrieves an order with its items. Returns nil if not found.
func (s *OrderStore) FindByID(id uuid.UUID) (*models.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}

	items, err := s.items(o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *OrderStore) items(orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.db.Query(`
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items WHERE order_id = $1
		ORDER BY product_name, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByUser returns a user's orders, newest first, without items.
func (s *OrderStore) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	return s.list(`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, number DESC`, userID)
}

// List returns orders newest first, optionally restricted to one status.
// A limit of zero means no limit.
func (s *OrderStore) List(status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC, number DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	return s.list(query, args...)
}

func (s *OrderStore) list(query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Count returns the number of orders, optionally restricted to one status.
func (s *OrderStore) Count(status models.OrderStatus) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE status = $1`, status).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of orders per status. Every known
// status is present in the result, zero when unused.
func (s *OrderStore) CountByStatus() (map[models.OrderStatus]int, error) {
	counts := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		counts[st] = 0
	}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.OrderStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// UpdateStatus sets the status of an order. Returns models.ErrNotFound
// when no order has the given id.
func (s *OrderStore) UpdateStatus(id uuid.UUID, status models.OrderStatus) error {
	res, err := s.db.Exec(`UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
