package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// deliveryRepositoryInMemory — in-memory реализация DeliveryRepository.
type deliveryRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Delivery
	// byOrder поддерживает инвариант "одна доставка на заказ".
	byOrder map[string]string
}

// NewDeliveryRepository возвращает in-memory репозиторий доставок.
func NewDeliveryRepository() domain.DeliveryRepository {
	return &deliveryRepositoryInMemory{
		items:   make(map[string]domain.Delivery),
		byOrder: make(map[string]string),
	}
}

// Create сохраняет новую доставку; вторая доставка на заказ запрещена.
func (r *deliveryRepositoryInMemory) Create(delivery domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[delivery.ID]; exists {
		return domain.ErrVersionConflict
	}
	if _, exists := r.byOrder[delivery.OrderID]; exists {
		return domain.ErrVersionConflict
	}
	r.items[delivery.ID] = cloneDelivery(delivery)
	r.byOrder[delivery.OrderID] = delivery.ID
	return nil
}

// Get возвращает доставку или ErrDeliveryNotFound.
func (r *deliveryRepositoryInMemory) Get(id string) (domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivery, ok := r.items[id]
	if !ok {
		return domain.Delivery{}, domain.ErrDeliveryNotFound
	}
	return cloneDelivery(delivery), nil
}

// GetByOrder возвращает доставку по заказу или ErrDeliveryNotFound.
func (r *deliveryRepositoryInMemory) GetByOrder(orderID string) (domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return domain.Delivery{}, domain.ErrDeliveryNotFound
	}
	return cloneDelivery(r.items[id]), nil
}

// ListByPartner возвращает страницу доставок курьера, новые первыми.
func (r *deliveryRepositoryInMemory) ListByPartner(partnerID string, page, limit int) ([]domain.Delivery, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Delivery, 0)
	for _, delivery := range r.items {
		if delivery.PartnerID == partnerID {
			result = append(result, cloneDelivery(delivery))
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

// Save перезаписывает доставку, проверяя версию (optimistic locking).
func (r *deliveryRepositoryInMemory) Save(delivery domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[delivery.ID]
	if !ok {
		return domain.ErrDeliveryNotFound
	}
	if current.Version != delivery.Version {
		return domain.ErrVersionConflict
	}
	delivery.Version++
	r.items[delivery.ID] = cloneDelivery(delivery)
	return nil
}

func cloneDelivery(delivery domain.Delivery) domain.Delivery {
	history := make([]domain.DeliveryHistoryEntry, len(delivery.StatusHistory))
	copy(history, delivery.StatusHistory)
	delivery.StatusHistory = history
	return delivery
}

var _ domain.DeliveryRepository = (*deliveryRepositoryInMemory)(nil)

// partnerRepositoryInMemory — in-memory реализация PartnerRepository.
type partnerRepositoryInMemory struct {
	mu       sync.RWMutex
	profiles map[string]domain.PartnerProfile
}

// NewPartnerRepository возвращает in-memory репозиторий профилей курьеров.
func NewPartnerRepository() domain.PartnerRepository {
	return &partnerRepositoryInMemory{profiles: make(map[string]domain.PartnerProfile)}
}

// Ensure создаёт профиль, если его ещё нет.
func (r *partnerRepositoryInMemory) Ensure(profile domain.PartnerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.PartnerID]; exists {
		return nil
	}
	r.profiles[profile.PartnerID] = profile
	return nil
}

// Get возвращает профиль курьера или ErrPartnerNotAssigned.
func (r *partnerRepositoryInMemory) Get(partnerID string) (domain.PartnerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[partnerID]
	if !ok {
		return domain.PartnerProfile{}, domain.ErrPartnerNotAssigned
	}
	return profile, nil
}

// UpdateRating перезаписывает агрегированный рейтинг курьера.
func (r *partnerRepositoryInMemory) UpdateRating(partnerID string, summary domain.RatingSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[partnerID]
	if !ok {
		return domain.ErrPartnerNotAssigned
	}
	profile.RatingAvg = summary.Average
	profile.RatingCount = summary.Count
	profile.UpdatedAt = time.Now().UTC()
	r.profiles[partnerID] = profile
	return nil
}

var _ domain.PartnerRepository = (*partnerRepositoryInMemory)(nil)
