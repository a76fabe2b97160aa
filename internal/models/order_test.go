// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "refunded", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestOrderReference(t *testing.T) {
	tests := []struct {
		number int64
		want   string
	}{
		{1, "000001"},
		{42, "000042"},
		{123456, "123456"},
		{1234567, "1234567"},
	}
	for _, tt := range tests {
		o := &Order{Number: tt.number}
		if got := o.Reference(); got != tt.want {
			t.Errorf("Reference(%d) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	it := OrderItem{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	if got := it.Subtotal(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("Subtotal() = %s", got)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("create category: %w", NewValidationError("name", "already taken"))
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatal("AsValidation should find the wrapped error")
	}
	if ve.Fields["name"] != "already taken" {
		t.Errorf("Fields = %v", ve.Fields)
	}
	if _, ok := AsValidation(errors.New("plain")); ok {
		t.Error("plain error is not a validation error")
	}
	if got := ve.Error(); got != "validation failed: name: already taken" {
		t.Errorf("Error() = %q", got)
	}
}
