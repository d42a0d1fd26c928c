package domain_test

import (
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

func makeProduct() domain.Product {
	return domain.Product{
		ID:                "product-1",
		Name:              "Gravel bike",
		Category:          domain.CategoryRoad,
		PriceMinor:        4500000,
		Stock:             10,
		Reserved:          2,
		LowStockThreshold: 3,
		Active:            true,
	}
}

func TestProductValidateInvariants_Ok(t *testing.T) {
	product := makeProduct()
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestProductValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(p *domain.Product)
	}{
		{
			name: "no name",
			mut: func(p *domain.Product) {
				p.Name = ""
			},
		},
		{
			name: "bad category",
			mut: func(p *domain.Product) {
				p.Category = "boats"
			},
		},
		{
			name: "negative price",
			mut: func(p *domain.Product) {
				p.PriceMinor = -1
			},
		},
		{
			name: "reserved above stock",
			mut: func(p *domain.Product) {
				p.Reserved = p.Stock + 1
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := makeProduct()
			tc.mut(&product)
			if errs := product.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors, got none")
			}
		})
	}
}

func TestProduct_Available(t *testing.T) {
	product := makeProduct()
	if got := product.Available(); got != 8 {
		t.Fatalf("expected available 8, got %d", got)
	}
}

func TestProduct_EffectivePriceMinor(t *testing.T) {
	product := makeProduct()
	if got := product.EffectivePriceMinor(); got != product.PriceMinor {
		t.Fatalf("expected base price %d, got %d", product.PriceMinor, got)
	}

	product.DiscountPriceMinor = 4000000
	if got := product.EffectivePriceMinor(); got != 4000000 {
		t.Fatalf("expected discount price, got %d", got)
	}
}

func TestProduct_LowStock(t *testing.T) {
	product := makeProduct()
	if product.LowStock() {
		t.Fatal("available 8 over threshold 3 should not be low stock")
	}

	product.Reserved = 7
	if !product.LowStock() {
		t.Fatal("available 3 at threshold 3 should be low stock")
	}
}
