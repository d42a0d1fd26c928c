package memory

import (
	"sort"
	"sync"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository
// с optimistic locking по полю Version.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{items: make(map[string]domain.Order)}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByUser возвращает страницу заказов пользователя, новые первыми.
func (r *orderRepositoryInMemory) ListByUser(userID string, page, limit int) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listLocked(func(o domain.Order) bool { return o.UserID == userID }, page, limit)
}

// List возвращает страницу заказов, опционально фильтруя по статусу.
func (r *orderRepositoryInMemory) List(status domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listLocked(func(o domain.Order) bool {
		return status == "" || o.Status == status
	}, page, limit)
}

func (r *orderRepositoryInMemory) listLocked(match func(domain.Order) bool, page, limit int) ([]domain.Order, int, error) {
	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if match(order) {
			result = append(result, cloneOrder(order))
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

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// CountByStatus возвращает распределение заказов по статусам.
func (r *orderRepositoryInMemory) CountByStatus() (map[domain.OrderStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.OrderStatus]int)
	for _, order := range r.items {
		counts[order.Status]++
	}
	return counts, nil
}

// HasPurchased ищет доставленный или завершённый заказ пользователя с данным товаром.
func (r *orderRepositoryInMemory) HasPurchased(userID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.items {
		if order.UserID != userID {
			continue
		}
		if order.Status != domain.OrderStatusDelivered && order.Status != domain.OrderStatusCompleted {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// cloneOrder копирует заказ вместе со слайсами, чтобы избежать мутаций извне.
func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items

	history := make([]domain.StatusHistoryEntry, len(order.StatusHistory))
	copy(history, order.StatusHistory)
	order.StatusHistory = history

	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
