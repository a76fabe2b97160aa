package checkout

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/models"
)

func TestGetCartLazy(t *testing.T) {
	shop := newMemShop()
	svc := NewCartService(shop, shop)
	user := uuid.New()

	first, err := svc.GetCart(user)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if !first.IsEmpty() {
		t.Errorf("new cart has %d lines", len(first.Items))
	}
	second, _ := svc.GetCart(user)
	if second.ID != first.ID {
		t.Error("second GetCart created another cart")
	}
}

func TestAddProductIncrements(t *testing.T) {
	shop := newMemShop()
	svc := NewCartService(shop, shop)
	user := uuid.New()
	p := shop.addProduct("Presage", "450.00", 5, true)

	if _, err := svc.AddProduct(user, p.ID, 1); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	cart, err := svc.AddProduct(user, p.ID, 2)
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", cart.Items[0].Quantity)
	}
}

func TestAddProductRules(t *testing.T) {
	shop := newMemShop()
	svc := NewCartService(shop, shop)
	user := uuid.New()
	active := shop.addProduct("Active", "10.00", 5, true)
	inactive := shop.addProduct("Inactive", "10.00", 5, false)

	tests := []struct {
		name    string
		id      uuid.UUID
		qty     int
		wantErr error
		wantQty int
	}{
		{"zero clamps to one", active.ID, 0, nil, 1},
		{"negative clamps to one", active.ID, -4, nil, 2},
		{"inactive product", inactive.ID, 1, models.ErrNotFound, 0},
		{"unknown product", uuid.New(), 1, models.ErrNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := svc.AddProduct(user, tt.id, tt.qty)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := cart.Line(tt.id).Quantity; got != tt.wantQty {
				t.Errorf("quantity = %d, want %d", got, tt.wantQty)
			}
		})
	}
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	shop := newMemShop()
	svc := NewCartService(shop, shop)
	user := uuid.New()
	a := shop.addProduct("A", "10.00", 5, true)
	b := shop.addProduct("B", "5.00", 5, true)
	svc.AddProduct(user, a.ID, 1)
	svc.AddProduct(user, b.ID, 1)

	cart, err := svc.UpdateQuantity(user, a.ID, 4)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if cart.Line(a.ID).Quantity != 4 {
		t.Errorf("quantity = %d, want 4", cart.Line(a.ID).Quantity)
	}

	cart, err = svc.UpdateQuantity(user, a.ID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity(0): %v", err)
	}
	if cart.Line(a.ID) != nil || len(cart.Items) != 1 {
		t.Errorf("zero quantity kept the line: %+v", cart.Items)
	}

	if _, err := svc.UpdateQuantity(user, a.ID, 2); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("update missing line err = %v", err)
	}

	cart, err = svc.RemoveProduct(user, b.ID)
	if err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("cart not empty after removing last line")
	}
	if _, err := svc.RemoveProduct(user, b.ID); err != nil {
		t.Errorf("removing absent line: %v", err)
	}
}

func TestTotalUsesCurrentPrices(t *testing.T) {
	shop := newMemShop()
	svc := NewCartService(shop, shop)
	user := uuid.New()
	a := shop.addProduct("A", "10.00", 5, true)
	b := shop.addProduct("B", "5.00", 5, true)
	svc.AddProduct(user, a.ID, 2)
	svc.AddProduct(user, b.ID, 1)

	total, err := svc.Total(user)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("total = %s, want 25.00", total)
	}

	a.Price = decimal.RequireFromString("12.50")
	total, _ = svc.Total(user)
	if !total.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("total after price change = %s, want 30.00", total)
	}

	if err := svc.Clear(user); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cart, _ := svc.GetCart(user)
	if !cart.IsEmpty() {
		t.Error("Clear left lines behind")
	}
	if total, _ := svc.Total(user); !total.IsZero() {
		t.Errorf("empty total = %s", total)
	}
}
