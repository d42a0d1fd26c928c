package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

func makeDelivery(id, orderID, partnerID string, createdAt time.Time) domain.Delivery {
	return domain.Delivery{
		ID:        id,
		OrderID:   orderID,
		PartnerID: partnerID,
		Status:    domain.DeliveryStatusAssigned,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestDeliveryRepository_OneDeliveryPerOrder(t *testing.T) {
	repo := memory.NewDeliveryRepository()
	now := time.Now().UTC()

	if err := repo.Create(makeDelivery("d1", "o1", "partner-1", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(makeDelivery("d2", "o1", "partner-2", now)); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("second delivery for order must conflict, got %v", err)
	}
}

func TestDeliveryRepository_GetByOrder(t *testing.T) {
	repo := memory.NewDeliveryRepository()
	now := time.Now().UTC()
	_ = repo.Create(makeDelivery("d1", "o1", "partner-1", now))

	got, err := repo.GetByOrder("o1")
	if err != nil {
		t.Fatalf("GetByOrder: %v", err)
	}
	if got.ID != "d1" {
		t.Fatalf("expected d1, got %s", got.ID)
	}

	if _, err := repo.GetByOrder("ghost"); !errors.Is(err, domain.ErrDeliveryNotFound) {
		t.Fatalf("expected ErrDeliveryNotFound, got %v", err)
	}
}

func TestDeliveryRepository_SaveOptimisticLocking(t *testing.T) {
	repo := memory.NewDeliveryRepository()
	now := time.Now().UTC()
	delivery := makeDelivery("d1", "o1", "partner-1", now)
	_ = repo.Create(delivery)

	delivery.Status = domain.DeliveryStatusPicked
	if err := repo.Save(delivery); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(delivery); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale save must conflict, got %v", err)
	}

	fresh, _ := repo.Get("d1")
	if fresh.Status != domain.DeliveryStatusPicked || fresh.Version != 1 {
		t.Fatalf("expected picked v1, got %s v%d", fresh.Status, fresh.Version)
	}
}

func TestDeliveryRepository_ListByPartner(t *testing.T) {
	repo := memory.NewDeliveryRepository()
	base := time.Now().UTC()
	_ = repo.Create(makeDelivery("d1", "o1", "partner-1", base))
	_ = repo.Create(makeDelivery("d2", "o2", "partner-1", base.Add(time.Minute)))
	_ = repo.Create(makeDelivery("d3", "o3", "partner-2", base))

	deliveries, total, err := repo.ListByPartner("partner-1", 1, 10)
	if err != nil {
		t.Fatalf("ListByPartner: %v", err)
	}
	if total != 2 || deliveries[0].ID != "d2" {
		t.Fatalf("expected 2 deliveries newest first, got total=%d %+v", total, deliveries)
	}
}

func TestPartnerRepository_EnsureIdempotent(t *testing.T) {
	repo := memory.NewPartnerRepository()
	if err := repo.Ensure(domain.PartnerProfile{PartnerID: "partner-1", DisplayName: "Courier One"}); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	// Повторный Ensure не перетирает профиль.
	if err := repo.Ensure(domain.PartnerProfile{PartnerID: "partner-1", DisplayName: "Other"}); err != nil {
		t.Fatalf("Ensure again: %v", err)
	}

	profile, err := repo.Get("partner-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if profile.DisplayName != "Courier One" {
		t.Fatalf("expected original profile, got %s", profile.DisplayName)
	}
}

func TestPartnerRepository_UpdateRating(t *testing.T) {
	repo := memory.NewPartnerRepository()
	_ = repo.Ensure(domain.PartnerProfile{PartnerID: "partner-1"})

	if err := repo.UpdateRating("partner-1", domain.RatingSummary{Average: 4.5, Count: 2}); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	profile, _ := repo.Get("partner-1")
	if profile.RatingAvg != 4.5 || profile.RatingCount != 2 {
		t.Fatalf("unexpected rating: %+v", profile)
	}

	if err := repo.UpdateRating("ghost", domain.RatingSummary{}); !errors.Is(err, domain.ErrPartnerNotAssigned) {
		t.Fatalf("expected ErrPartnerNotAssigned, got %v", err)
	}
}

func TestCartRepository_SaveGet(t *testing.T) {
	repo := memory.NewCartRepository()

	if _, err := repo.GetByUser("u1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}

	cart := domain.Cart{
		ID:     "c1",
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Qty: 2, PriceMinor: 500}},
	}
	if err := repo.Save(cart); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByUser("u1")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != "p1" {
		t.Fatalf("unexpected cart: %+v", got)
	}

	// Перезапись корзины (очистка).
	cart.Items = nil
	if err := repo.Save(cart); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	got, _ = repo.GetByUser("u1")
	if len(got.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", got.Items)
	}
}
