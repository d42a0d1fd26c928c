package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

func TestIsNotFound(t *testing.T) {
	notFound := []error{
		domain.ErrProductNotFound,
		domain.ErrCartNotFound,
		domain.ErrCartItemNotFound,
		domain.ErrOrderNotFound,
		domain.ErrDeliveryNotFound,
		domain.ErrReviewNotFound,
	}
	for _, err := range notFound {
		if !domain.IsNotFound(err) {
			t.Errorf("expected IsNotFound for %v", err)
		}
		if !domain.IsNotFound(fmt.Errorf("wrap: %w", err)) {
			t.Errorf("expected IsNotFound for wrapped %v", err)
		}
	}

	if domain.IsNotFound(domain.ErrVersionConflict) {
		t.Error("version conflict is not a not-found error")
	}
	if domain.IsNotFound(errors.New("other")) {
		t.Error("unrelated error is not a not-found error")
	}
}

func TestIsVersionConflict(t *testing.T) {
	if !domain.IsVersionConflict(domain.ErrVersionConflict) {
		t.Error("expected IsVersionConflict for sentinel")
	}
	if !domain.IsVersionConflict(fmt.Errorf("save order: %w", domain.ErrVersionConflict)) {
		t.Error("expected IsVersionConflict for wrapped sentinel")
	}
	if domain.IsVersionConflict(domain.ErrOrderNotFound) {
		t.Error("not-found is not a version conflict")
	}
}
