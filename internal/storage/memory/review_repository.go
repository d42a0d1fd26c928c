package memory

import (
	"sort"
	"sync"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// reviewRepositoryInMemory — in-memory реализация ReviewRepository
// с проверкой уникальности, повторяющей частичные уникальные индексы Postgres.
type reviewRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Review
}

// NewReviewRepository возвращает in-memory репозиторий отзывов.
func NewReviewRepository() domain.ReviewRepository {
	return &reviewRepositoryInMemory{items: make(map[string]domain.Review)}
}

// Create сохраняет отзыв, отклоняя дубликаты по (товар, пользователь) или заказу.
func (r *reviewRepositoryInMemory) Create(review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Kind != review.Kind {
			continue
		}
		switch review.Kind {
		case domain.ReviewKindProduct:
			if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
				return domain.ErrDuplicateReview
			}
		case domain.ReviewKindDelivery:
			if existing.OrderID == review.OrderID {
				return domain.ErrDuplicateReview
			}
		}
	}
	r.items[review.ID] = review
	return nil
}

// Get возвращает отзыв или ErrReviewNotFound.
func (r *reviewRepositoryInMemory) Get(id string) (domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.items[id]
	if !ok {
		return domain.Review{}, domain.ErrReviewNotFound
	}
	return review, nil
}

// Save перезаписывает существующий отзыв.
func (r *reviewRepositoryInMemory) Save(review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[review.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	r.items[review.ID] = review
	return nil
}

// Delete удаляет отзыв.
func (r *reviewRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.items, id)
	return nil
}

// ListByProduct возвращает страницу одобренных отзывов о товаре, новые первыми.
func (r *reviewRepositoryInMemory) ListByProduct(productID string, page, limit int) ([]domain.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Review, 0)
	for _, review := range r.items {
		if review.Kind == domain.ReviewKindProduct && review.ProductID == productID && review.IsApproved {
			result = append(result, review)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	total := len(result)
	return paginate(result, page, limit), total, nil
}

// ApprovedRatings возвращает оценки одобренных отзывов цели.
func (r *reviewRepositoryInMemory) ApprovedRatings(kind domain.ReviewKind, targetID string) ([]int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ratings := make([]int32, 0)
	for _, review := range r.items {
		if review.Kind != kind || !review.IsApproved {
			continue
		}
		switch kind {
		case domain.ReviewKindProduct:
			if review.ProductID == targetID {
				ratings = append(ratings, review.Rating)
			}
		case domain.ReviewKindDelivery:
			if review.PartnerID == targetID {
				ratings = append(ratings, review.Rating)
			}
		}
	}
	return ratings, nil
}

var _ domain.ReviewRepository = (*reviewRepositoryInMemory)(nil)
