package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCalculateTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 2, UnitCents: 8900},
			{Quantity: 1, UnitCents: 12500},
		},
	}
	order.CalculateTotal()
	if order.TotalCents != 2*8900+12500 {
		t.Errorf("TotalCents = %d", order.TotalCents)
	}

	empty := Order{}
	empty.CalculateTotal()
	if empty.TotalCents != 0 {
		t.Errorf("empty order TotalCents = %d", empty.TotalCents)
	}
}

func TestCanBeCancelled(t *testing.T) {
	recent := time.Now().Add(-24 * time.Hour)
	old := time.Now().Add(-15 * 24 * time.Hour)
	fulfilled := time.Now().Add(-time.Hour)

	cases := []struct {
		name  string
		order Order
		want  bool
	}{
		{"paid recently", Order{Status: "paid", PaidAt: &recent}, true},
		{"paid too long ago", Order{Status: "paid", PaidAt: &old}, false},
		{"already picked up", Order{Status: "paid", PaidAt: &recent, FulfilledAt: &fulfilled}, false},
		{"pending", Order{Status: "pending"}, false},
		{"cancelled", Order{Status: "cancelled"}, false},
		{"paid without timestamp", Order{Status: "paid"}, false},
	}
	for _, tc := range cases {
		if got := tc.order.CanBeCancelled(); got != tc.want {
			t.Errorf("%s: CanBeCancelled = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOrderBeforeCreateAssignsID(t *testing.T) {
	order := Order{}
	if err := order.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if order.ID == uuid.Nil {
		t.Error("ID was not assigned")
	}

	fixed := uuid.New()
	keep := Order{ID: fixed}
	if err := keep.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if keep.ID != fixed {
		t.Error("existing ID was overwritten")
	}
}
