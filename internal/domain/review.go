package domain

import "time"

// ReviewKind — дискриминатор варианта отзыва.
type ReviewKind string

const (
	// ReviewKindProduct — отзыв о товаре; требует ProductID,
	// уникален в паре (товар, пользователь).
	ReviewKindProduct ReviewKind = "product"
	// ReviewKindDelivery — отзыв о доставке; требует OrderID и PartnerID,
	// один на завершённый заказ.
	ReviewKindDelivery ReviewKind = "delivery"
)

// Valid проверяет, что вид отзыва относится к поддерживаемым значениям.
func (k ReviewKind) Valid() bool {
	return k == ReviewKindProduct || k == ReviewKindDelivery
}

// Review — отзыв покупателя. Вариант задаётся полем Kind: для товара обязателен
// ProductID, для доставки — OrderID и PartnerID. Поля чужого варианта пустые.
type Review struct {
	ID     string
	Kind   ReviewKind
	UserID string
	// ProductID заполняется только для Kind == product.
	ProductID string
	// OrderID и PartnerID заполняются только для Kind == delivery.
	OrderID   string
	PartnerID string
	Rating    int32
	Title     string
	Comment   string
	// VerifiedPurchase выставляется, если у автора есть доставленный заказ с этим товаром.
	VerifiedPurchase bool
	// IsApproved используется модерацией; по умолчанию true.
	IsApproved   bool
	HelpfulCount int32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate проверяет вариантные инварианты отзыва.
func (r *Review) Validate() []error {
	var errs []error

	if r.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if r.Rating < 1 || r.Rating > 5 {
		errs = append(errs, ErrRatingOutOfRange)
	}

	switch r.Kind {
	case ReviewKindProduct:
		if r.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
	case ReviewKindDelivery:
		if r.OrderID == "" {
			errs = append(errs, ErrOrderNotFound)
		}
		if r.PartnerID == "" {
			errs = append(errs, ErrPartnerNotAssigned)
		}
	default:
		errs = append(errs, ErrReviewNotEligible)
	}

	return errs
}

// RatingSummary — пересчитанный рейтинг цели отзывов.
type RatingSummary struct {
	Average float64
	Count   int32
}
