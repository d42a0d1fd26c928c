package domain_test

import (
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

func makeCart() domain.Cart {
	return domain.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: "product-1", Qty: 2, PriceMinor: 150},
			{ProductID: "product-2", Qty: 1, PriceMinor: 700},
		},
	}
}

func TestCart_TotalMinor(t *testing.T) {
	cart := makeCart()
	if got := cart.TotalMinor(); got != 1000 {
		t.Fatalf("expected total 1000, got %d", got)
	}
}

func TestCart_FindItem(t *testing.T) {
	cart := makeCart()
	if idx := cart.FindItem("product-2"); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := cart.FindItem("product-9"); idx != -1 {
		t.Fatalf("expected -1 for missing product, got %d", idx)
	}
}

func TestCartValidate(t *testing.T) {
	cart := makeCart()
	if errs := cart.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	cart.UserID = ""
	cart.Items[0].Qty = 0
	cart.Items[1].PriceMinor = -1
	if errs := cart.Validate(); len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
}
