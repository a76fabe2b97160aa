package checkout

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
)

// memShop holds carts, products and orders in memory. It implements
// CartRepository, ProductLookup and OrderRepository with the same
// observable behavior as the SQL stores.
type memShop struct {
	products map[uuid.UUID]*models.Product
	carts    map[uuid.UUID]*memCart // by user id
	orders   []*models.Order
	number   int64
	clock    time.Time

	// failPlace makes PlaceOrder fail before touching anything.
	failPlace error
}

type memCart struct {
	id    uuid.UUID
	lines []memLine
}

type memLine struct {
	productID uuid.UUID
	qty       int
}

func newMemShop() *memShop {
	return &memShop{
		products: make(map[uuid.UUID]*models.Product),
		carts:    make(map[uuid.UUID]*memCart),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memShop) addProduct(name, price string, stock int, active bool) *models.Product {
	p := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Brand:    "Seiko",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	}
	m.products[p.ID] = p
	return p
}

func (m *memShop) FindByID(id uuid.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memShop) cartByID(cartID uuid.UUID) (*memCart, uuid.UUID) {
	for userID, c := range m.carts {
		if c.id == cartID {
			return c, userID
		}
	}
	return nil, uuid.Nil
}

func (m *memShop) FindOrCreate(userID uuid.UUID) (*models.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		c = &memCart{id: uuid.New()}
		m.carts[userID] = c
	}
	cart := &models.Cart{ID: c.id, UserID: userID}
	for _, l := range c.lines {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.New(),
			CartID:    c.id,
			ProductID: l.productID,
			Quantity:  l.qty,
			Product:   *m.products[l.productID],
		})
	}
	return cart, nil
}

func (m *memShop) AddItem(cartID, productID uuid.UUID, qty int) error {
	c, _ := m.cartByID(cartID)
	for i := range c.lines {
		if c.lines[i].productID == productID {
			c.lines[i].qty += qty
			return nil
		}
	}
	c.lines = append(c.lines, memLine{productID: productID, qty: qty})
	return nil
}

func (m *memShop) SetQuantity(cartID, productID uuid.UUID, qty int) error {
	c, _ := m.cartByID(cartID)
	for i := range c.lines {
		if c.lines[i].productID == productID {
			c.lines[i].qty = qty
		}
	}
	return nil
}

func (m *memShop) RemoveItem(cartID, productID uuid.UUID) error {
	c, _ := m.cartByID(cartID)
	for i := range c.lines {
		if c.lines[i].productID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memShop) Clear(cartID uuid.UUID) error {
	c, _ := m.cartByID(cartID)
	c.lines = nil
	return nil
}

func (m *memShop) PlaceOrder(cartID, userID uuid.UUID, shipping models.ShippingDetails) (*models.Order, error) {
	if m.failPlace != nil {
		return nil, m.failPlace
	}
	c, owner := m.cartByID(cartID)
	if c == nil || owner != userID {
		return nil, models.ErrNotFound
	}
	if len(c.lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	m.number++
	m.clock = m.clock.Add(time.Minute)
	o := &models.Order{
		ID:        uuid.New(),
		Number:    m.number,
		UserID:    userID,
		Total:     decimal.Zero,
		Status:    models.OrderStatusPending,
		CreatedAt: m.clock,
		Shipping:  shipping,
	}
	for _, l := range c.lines {
		p := m.products[l.productID]
		pid := p.ID
		o.Items = append(o.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   &pid,
			Quantity:    l.qty,
			Price:       p.Price,
			ProductName: p.Name,
		})
		o.Total = o.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.qty))))
		p.Stock -= l.qty
	}
	c.lines = nil
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *memShop) findOrder(id uuid.UUID) *models.Order {
	for _, o := range m.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// memOrders exposes memShop as an OrderRepository. Its FindByID looks up
// orders; memShop's own FindByID looks up products.
type memOrders struct{ *memShop }

func (m memOrders) FindByID(id uuid.UUID) (*models.Order, error) {
	o := m.findOrder(id)
	if o == nil {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m memOrders) newestFirst(filter func(*models.Order) bool) []models.Order {
	var out []models.Order
	for _, o := range m.orders {
		if filter(o) {
			cp := *o
			cp.Items = nil
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

func (m memOrders) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	return m.newestFirst(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (m memOrders) List(status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	out := m.newestFirst(func(o *models.Order) bool { return status == "" || o.Status == status })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memOrders) Count(status models.OrderStatus) (int, error) {
	all, _ := m.List(status, 0, 0)
	return len(all), nil
}

func (m memOrders) CountByStatus() (map[models.OrderStatus]int, error) {
	counts := map[models.OrderStatus]int{}
	for _, st := range models.OrderStatuses {
		counts[st] = 0
	}
	for _, o := range m.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (m memOrders) UpdateStatus(id uuid.UUID, status models.OrderStatus) error {
	o := m.findOrder(id)
	if o == nil {
		return models.ErrNotFound
	}
	o.Status = status
	return nil
}

var errDisk = errors.New("disk full")

func validShipping() models.ShippingDetails {
	return models.ShippingDetails{
		FirstName:  "Jeanne",
		LastName:   "Martin",
		Address:    "12 rue des Horlogers",
		PostalCode: "75003",
		City:       "Paris",
		Phone:      "0601020304",
	}
}
