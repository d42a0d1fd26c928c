package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:              "order-1",
		UserID:          "user-1",
		OrderNumber:     domain.NewOrderNumber(now),
		Status:          domain.OrderStatusCreated,
		AmountMinor:     500,
		ShippingAddress: "12 Marine Drive, Mumbai",
		Items: []domain.OrderItem{
			{
				ID:         "item-1",
				ProductID:  "product-1",
				Name:       "Road bike",
				Qty:        5,
				PriceMinor: 100,
				CreatedAt:  now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no user",
			mut: func(o *domain.Order) {
				o.UserID = ""
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
		},
		{
			name: "no shipping address",
			mut: func(o *domain.Order) {
				o.ShippingAddress = ""
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].PriceMinor = -5
			},
		},
		{
			name: "amount mismatch",
			mut: func(o *domain.Order) {
				o.AmountMinor = 999
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors, got none")
			}
		})
	}
}

func TestOrderStatus_CanAdvanceTo(t *testing.T) {
	cases := []struct {
		from   domain.OrderStatus
		to     domain.OrderStatus
		expect bool
	}{
		{domain.OrderStatusCreated, domain.OrderStatusPaid, true},
		{domain.OrderStatusCreated, domain.OrderStatusShipped, true},
		{domain.OrderStatusPaid, domain.OrderStatusPacked, true},
		{domain.OrderStatusPacked, domain.OrderStatusShipped, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusDelivered, domain.OrderStatusCompleted, true},
		{domain.OrderStatusPaid, domain.OrderStatusCreated, false},
		{domain.OrderStatusDelivered, domain.OrderStatusShipped, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCompleted, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPaid, false},
		// Отмена поверх Cancellable.
		{domain.OrderStatusCreated, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPaid, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPacked, domain.OrderStatusCancelled, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.expect {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.expect, got)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []domain.OrderStatus{domain.OrderStatusCreated, domain.OrderStatusPaid, domain.OrderStatusShipped} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestOrder_AppendHistory(t *testing.T) {
	order := makeOrder()
	at := time.Now().UTC()

	order.AppendHistory(domain.OrderStatusPaid, "payment confirmed", "gateway", at)

	if len(order.StatusHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(order.StatusHistory))
	}
	entry := order.StatusHistory[0]
	if entry.Status != domain.OrderStatusPaid || entry.Actor != "gateway" || !entry.Occurred.Equal(at) {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestNewOrderNumber_Format(t *testing.T) {
	number := domain.NewOrderNumber(time.Now())
	if !strings.HasPrefix(number, "SON-") {
		t.Fatalf("expected SON- prefix, got %s", number)
	}
	if parts := strings.Split(number, "-"); len(parts) != 3 {
		t.Fatalf("expected 3 dash-separated parts, got %s", number)
	}
}

func TestNewOrderNumber_UniqueWithinMilli(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := domain.NewOrderNumber(now)
		if seen[n] {
			t.Fatalf("duplicate order number %s", n)
		}
		seen[n] = true
	}
}
