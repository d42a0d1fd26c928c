package review

import (
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// Service ведёт отзывы и пересчитывает рейтинги их целей:
// товаров для product-отзывов и курьеров для delivery-отзывов.
type Service struct {
	reviews    domain.ReviewRepository
	products   domain.ProductRepository
	orders     domain.OrderRepository
	deliveries domain.DeliveryRepository
	partners   domain.PartnerRepository
	logger     *log.Entry
}

// Deps перечисляет зависимости сервиса отзывов.
type Deps struct {
	Reviews    domain.ReviewRepository
	Products   domain.ProductRepository
	Orders     domain.OrderRepository
	Deliveries domain.DeliveryRepository
	Partners   domain.PartnerRepository
	Logger     *log.Entry
}

// NewService создаёт сервис отзывов.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "review-service")
	}
	return &Service{
		reviews:    deps.Reviews,
		products:   deps.Products,
		orders:     deps.Orders,
		deliveries: deps.Deliveries,
		partners:   deps.Partners,
		logger:     logger,
	}
}

// CreateProductReview создаёт отзыв о товаре. Повторный отзыв той же пары
// (товар, пользователь) отклоняется. Флаг подтверждённой покупки
// вычисляется по доставленным заказам автора.
func (s *Service) CreateProductReview(principal domain.Principal, productID string, rating int32, title, comment string) (domain.Review, error) {
	if _, err := s.products.Get(productID); err != nil {
		return domain.Review{}, err
	}

	purchased, err := s.orders.HasPurchased(principal.ID, productID)
	if err != nil {
		return domain.Review{}, err
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:               uuid.NewString(),
		Kind:             domain.ReviewKindProduct,
		UserID:           principal.ID,
		ProductID:        productID,
		Rating:           rating,
		Title:            title,
		Comment:          comment,
		VerifiedPurchase: purchased,
		IsApproved:       true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if errs := review.Validate(); len(errs) > 0 {
		return domain.Review{}, errs[0]
	}

	if err := s.reviews.Create(review); err != nil {
		return domain.Review{}, err
	}

	if err := s.recomputeRating(domain.ReviewKindProduct, productID); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("failed to recompute product rating")
	}

	return review, nil
}

// CreateDeliveryReview создаёт отзыв о доставке завершённого заказа.
// Разрешён только владельцу заказа и только один на заказ.
func (s *Service) CreateDeliveryReview(principal domain.Principal, orderID string, rating int32, title, comment string) (domain.Review, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Review{}, err
	}
	if order.UserID != principal.ID {
		return domain.Review{}, domain.ErrForbidden
	}
	if order.Status != domain.OrderStatusDelivered && order.Status != domain.OrderStatusCompleted {
		return domain.Review{}, domain.ErrReviewNotEligible
	}

	delivery, err := s.deliveries.GetByOrder(orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Review{}, domain.ErrPartnerNotAssigned
		}
		return domain.Review{}, err
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:         uuid.NewString(),
		Kind:       domain.ReviewKindDelivery,
		UserID:     principal.ID,
		OrderID:    orderID,
		PartnerID:  delivery.PartnerID,
		Rating:     rating,
		Title:      title,
		Comment:    comment,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := review.Validate(); len(errs) > 0 {
		return domain.Review{}, errs[0]
	}

	if err := s.reviews.Create(review); err != nil {
		return domain.Review{}, err
	}

	if err := s.recomputeRating(domain.ReviewKindDelivery, delivery.PartnerID); err != nil {
		s.logger.WithError(err).WithField("partner_id", delivery.PartnerID).Warn("failed to recompute partner rating")
	}

	return review, nil
}

// Update правит собственный отзыв автора.
func (s *Service) Update(principal domain.Principal, reviewID string, rating int32, title, comment string) (domain.Review, error) {
	review, err := s.reviews.Get(reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if review.UserID != principal.ID {
		return domain.Review{}, domain.ErrForbidden
	}
	if rating < 1 || rating > 5 {
		return domain.Review{}, domain.ErrRatingOutOfRange
	}

	review.Rating = rating
	review.Title = title
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Save(review); err != nil {
		return domain.Review{}, err
	}

	if err := s.recomputeRating(review.Kind, s.targetID(review)); err != nil {
		s.logger.WithError(err).WithField("review_id", reviewID).Warn("failed to recompute rating")
	}

	return review, nil
}

// Delete удаляет отзыв; разрешён автору и администратору.
func (s *Service) Delete(principal domain.Principal, reviewID string) error {
	review, err := s.reviews.Get(reviewID)
	if err != nil {
		return err
	}
	if review.UserID != principal.ID && !principal.IsAdmin() {
		return domain.ErrForbidden
	}

	if err := s.reviews.Delete(reviewID); err != nil {
		return err
	}

	if err := s.recomputeRating(review.Kind, s.targetID(review)); err != nil {
		s.logger.WithError(err).WithField("review_id", reviewID).Warn("failed to recompute rating")
	}

	return nil
}

// Moderate выставляет флаг одобрения отзыва. Только для администратора.
func (s *Service) Moderate(principal domain.Principal, reviewID string, approved bool) (domain.Review, error) {
	if !principal.IsAdmin() {
		return domain.Review{}, domain.ErrForbidden
	}

	review, err := s.reviews.Get(reviewID)
	if err != nil {
		return domain.Review{}, err
	}

	review.IsApproved = approved
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Save(review); err != nil {
		return domain.Review{}, err
	}

	if err := s.recomputeRating(review.Kind, s.targetID(review)); err != nil {
		s.logger.WithError(err).WithField("review_id", reviewID).Warn("failed to recompute rating")
	}

	return review, nil
}

// ListByProduct возвращает страницу одобренных отзывов о товаре.
func (s *Service) ListByProduct(productID string, page, limit int) ([]domain.Review, int, error) {
	return s.reviews.ListByProduct(productID, page, limit)
}

func (s *Service) targetID(review domain.Review) string {
	if review.Kind == domain.ReviewKindDelivery {
		return review.PartnerID
	}
	return review.ProductID
}

// recomputeRating пересчитывает рейтинг цели: среднее одобренных отзывов,
// округлённое до одного знака; ноль, когда отзывов не осталось.
func (s *Service) recomputeRating(kind domain.ReviewKind, targetID string) error {
	ratings, err := s.reviews.ApprovedRatings(kind, targetID)
	if err != nil {
		return err
	}

	summary := domain.RatingSummary{Count: int32(len(ratings))}
	if len(ratings) > 0 {
		var sum int64
		for _, rating := range ratings {
			sum += int64(rating)
		}
		avg := float64(sum) / float64(len(ratings))
		summary.Average = math.Round(avg*10) / 10
	}

	if kind == domain.ReviewKindDelivery {
		return s.partners.UpdateRating(targetID, summary)
	}
	return s.products.UpdateRating(targetID, summary)
}
