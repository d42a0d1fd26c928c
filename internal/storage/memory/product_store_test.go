package memory_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

func seedProduct(t *testing.T, store *memory.ProductStore, id string, stock int32) {
	t.Helper()
	err := store.Create(domain.Product{
		ID:         id,
		Name:       "Trail bike " + id,
		Category:   domain.CategoryMountain,
		PriceMinor: 100000,
		Stock:      stock,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

func TestProductStore_ReserveAll(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	seedProduct(t, store, "p2", 3)

	lines := []domain.ReservationLine{
		{ProductID: "p1", Qty: 4},
		{ProductID: "p2", Qty: 3},
	}
	if err := store.ReserveAll(lines, "user-1"); err != nil {
		t.Fatalf("ReserveAll: %v", err)
	}

	p1, _ := store.Get("p1")
	p2, _ := store.Get("p2")
	if p1.Reserved != 4 || p2.Reserved != 3 {
		t.Fatalf("expected reserved 4/3, got %d/%d", p1.Reserved, p2.Reserved)
	}

	movements, err := store.Movements("p1", 0)
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(movements) != 1 || movements[0].Type != domain.MovementReserved {
		t.Fatalf("expected one reserved movement, got %+v", movements)
	}
}

func TestProductStore_ReserveAll_AllOrNothing(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	seedProduct(t, store, "p2", 1)

	lines := []domain.ReservationLine{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 5},
	}
	err := store.ReserveAll(lines, "user-1")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Первая позиция не должна остаться зарезервированной.
	p1, _ := store.Get("p1")
	if p1.Reserved != 0 {
		t.Fatalf("expected no reservation on p1, got %d", p1.Reserved)
	}
}

func TestProductStore_ReserveAll_UnknownProduct(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)

	err := store.ReserveAll([]domain.ReservationLine{{ProductID: "ghost", Qty: 1}}, "user-1")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductStore_ConcurrentReserve(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 5)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 3}}, "racer")
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one successful reservation, got ok=%d insufficient=%d", ok, insufficient)
	}

	product, _ := store.Get("p1")
	if product.Reserved != 3 {
		t.Fatalf("expected reserved 3, got %d", product.Reserved)
	}
}

func TestProductStore_CommitReducesStockAndReserve(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 4}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.Commit("p1", 4, "order SON-1", "user-1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	product, _ := store.Get("p1")
	if product.Stock != 6 || product.Reserved != 0 {
		t.Fatalf("expected stock 6 reserved 0, got %d/%d", product.Stock, product.Reserved)
	}

	if err := store.Commit("p1", 1, "again", "user-1"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("commit without reserve must fail, got %v", err)
	}
}

func TestProductStore_ReleaseClampsAtZero(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 2}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.Release("p1", 5, "order cancelled", "user-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	product, _ := store.Get("p1")
	if product.Reserved != 0 || product.Stock != 10 {
		t.Fatalf("expected reserved 0 stock 10, got %d/%d", product.Reserved, product.Stock)
	}

	// Повторный release без резерва не пишет движение.
	if err := store.Release("p1", 1, "noop", "user-1"); err != nil {
		t.Fatalf("Release noop: %v", err)
	}
	movements, _ := store.Movements("p1", 0)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements (reserve+release), got %d", len(movements))
	}
}

func TestProductStore_RemoveStockKeepsReserve(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 6}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.RemoveStock("p1", 5, "damage", "manager"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("removing into reserve must fail, got %v", err)
	}
	if err := store.RemoveStock("p1", 4, "damage", "manager"); err != nil {
		t.Fatalf("RemoveStock: %v", err)
	}

	product, _ := store.Get("p1")
	if product.Stock != 6 || product.Reserved != 6 {
		t.Fatalf("expected stock 6 reserved 6, got %d/%d", product.Stock, product.Reserved)
	}
}

func TestProductStore_Adjust(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 3}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := store.Adjust("p1", 2, "inventory check", "manager"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("adjust below reserve must fail, got %v", err)
	}
	if err := store.Adjust("p1", 7, "inventory check", "manager"); err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	product, _ := store.Get("p1")
	if product.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", product.Stock)
	}

	movements, _ := store.Movements("p1", 1)
	if len(movements) != 1 || movements[0].Type != domain.MovementAdjustment || movements[0].Qty != -3 {
		t.Fatalf("expected adjustment movement with qty -3, got %+v", movements)
	}
}

func TestProductStore_SaveKeepsCounters(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 2}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	product, _ := store.Get("p1")
	product.Name = "Renamed"
	product.Stock = 0
	product.Reserved = 0
	if err := store.Save(product); err != nil {
		t.Fatalf("Save: %v", err)
	}

	saved, _ := store.Get("p1")
	if saved.Name != "Renamed" {
		t.Fatalf("expected renamed product, got %s", saved.Name)
	}
	if saved.Stock != 10 || saved.Reserved != 2 {
		t.Fatalf("counters must survive Save, got %d/%d", saved.Stock, saved.Reserved)
	}
}

func TestProductStore_ListFilters(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 5)
	seedProduct(t, store, "p2", 5)

	inactive, _ := store.Get("p2")
	inactive.Active = false
	if err := store.Save(inactive); err != nil {
		t.Fatalf("Save: %v", err)
	}

	products, total, err := store.List(domain.ProductFilter{ActiveOnly: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("expected only p1, got total=%d products=%+v", total, products)
	}

	_, total, err = store.List(domain.ProductFilter{Query: "trail bike p2", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List by query: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected query match, got %d", total)
	}
}

func TestProductStore_LowStock(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", 10)
	seedProduct(t, store, "p2", 10)

	product, _ := store.Get("p1")
	product.LowStockThreshold = 4
	if err := store.Save(product); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.ReserveAll([]domain.ReservationLine{{ProductID: "p1", Qty: 7}}, "user-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	low, err := store.LowStock(10)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(low) != 1 || low[0].ID != "p1" {
		t.Fatalf("expected p1 in low stock, got %+v", low)
	}
}
