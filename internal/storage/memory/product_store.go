package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// ProductStore — in-memory реализация ProductRepository и StockLedger
// поверх одной карты товаров. Складские операции выполняются под общим
// мьютексом, что даёт ту же атомарность compare-and-increment, что и
// условные UPDATE в Postgres.
type ProductStore struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	movements map[string][]domain.StockMovement
}

// NewProductStore возвращает in-memory хранилище товаров для разработки и тестов.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products:  make(map[string]domain.Product),
		movements: make(map[string][]domain.StockMovement),
	}
}

// Create сохраняет новый товар.
func (s *ProductStore) Create(product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return domain.ErrVersionConflict
	}
	s.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (s *ProductStore) Get(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает страницу товаров и общее число подходящих под фильтр.
func (s *ProductStore) List(filter domain.ProductFilter) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if filter.ActiveOnly && !product.Active {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(filter.Query)) {
			continue
		}
		matched = append(matched, product)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	return paginate(matched, filter.Page, filter.Limit), total, nil
}

// Save перезаписывает каталожные поля товара.
func (s *ProductStore) Save(product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	// Складские счётчики меняются только через StockLedger.
	product.Stock = current.Stock
	product.Reserved = current.Reserved
	s.products[product.ID] = product
	return nil
}

// Delete удаляет товар вместе с журналом движений.
func (s *ProductStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	delete(s.movements, id)
	return nil
}

// UpdateRating перезаписывает агрегированный рейтинг товара.
func (s *ProductStore) UpdateRating(productID string, summary domain.RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.RatingAvg = summary.Average
	product.RatingCount = summary.Count
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	return nil
}

// LowStock возвращает товары, доступный остаток которых не выше порога.
func (s *ProductStore) LowStock(limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, product := range s.products {
		if product.LowStock() {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Available() < result[j].Available()
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ReserveAll резервирует все позиции атомарно: сначала проверяет каждую
// под мьютексом, применяет только при успехе всех проверок.
func (s *ProductStore) ReserveAll(lines []domain.ReservationLine, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if line.Qty <= 0 {
			return domain.ErrQtyInvalid
		}
		if line.Qty > product.Available() {
			return domain.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for _, line := range lines {
		product := s.products[line.ProductID]
		product.Reserved += line.Qty
		product.UpdatedAt = now
		s.products[line.ProductID] = product
		s.appendMovement(product, domain.MovementReserved, line.Qty, "order reservation", actor, now)
	}
	return nil
}

// Release снимает резерв, не опуская его ниже нуля.
func (s *ProductStore) Release(productID string, qty int32, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if qty > product.Reserved {
		qty = product.Reserved
	}
	if qty <= 0 {
		return nil
	}
	product.Reserved -= qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	s.appendMovement(product, domain.MovementReleased, qty, reason, actor, product.UpdatedAt)
	return nil
}

// Commit переводит зарезервированные единицы в проданные.
func (s *ProductStore) Commit(productID string, qty int32, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	if qty > product.Reserved || qty > product.Stock {
		return domain.ErrInsufficientStock
	}
	previous := product.Stock
	product.Stock -= qty
	product.Reserved -= qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	s.appendMovementWithStocks(product, domain.MovementOut, -qty, previous, product.Stock, reason, actor, product.UpdatedAt)
	return nil
}

// AddStock увеличивает остаток (приход).
func (s *ProductStore) AddStock(productID string, qty int32, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	previous := product.Stock
	product.Stock += qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	s.appendMovementWithStocks(product, domain.MovementIn, qty, previous, product.Stock, reason, actor, product.UpdatedAt)
	return nil
}

// RemoveStock списывает доступный остаток, не затрагивая резерв.
func (s *ProductStore) RemoveStock(productID string, qty int32, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	if qty > product.Available() {
		return domain.ErrInsufficientStock
	}
	previous := product.Stock
	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	s.appendMovementWithStocks(product, domain.MovementOut, -qty, previous, product.Stock, reason, actor, product.UpdatedAt)
	return nil
}

// Adjust выставляет остаток напрямую, записывая знаковую корректировку.
func (s *ProductStore) Adjust(productID string, newTotal int32, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if newTotal < product.Reserved {
		return domain.ErrInsufficientStock
	}
	previous := product.Stock
	delta := newTotal - previous
	if delta == 0 {
		return nil
	}
	product.Stock = newTotal
	product.UpdatedAt = time.Now().UTC()
	s.products[productID] = product
	s.appendMovementWithStocks(product, domain.MovementAdjustment, delta, previous, newTotal, reason, actor, product.UpdatedAt)
	return nil
}

// Movements возвращает журнал движений товара, новые записи первыми.
func (s *ProductStore) Movements(productID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.products[productID]; !ok {
		return nil, domain.ErrProductNotFound
	}
	movements := s.movements[productID]
	result := make([]domain.StockMovement, len(movements))
	copy(result, movements)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Occurred.After(result[j].Occurred)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// appendMovement пишет запись для операций над резервом: остаток не меняется.
func (s *ProductStore) appendMovement(product domain.Product, mtype domain.MovementType, qty int32, reason, actor string, at time.Time) {
	s.appendMovementWithStocks(product, mtype, qty, product.Stock, product.Stock, reason, actor, at)
}

func (s *ProductStore) appendMovementWithStocks(product domain.Product, mtype domain.MovementType, qty, previous, current int32, reason, actor string, at time.Time) {
	s.movements[product.ID] = append(s.movements[product.ID], domain.StockMovement{
		ID:            uuid.NewString(),
		ProductID:     product.ID,
		Type:          mtype,
		Qty:           qty,
		PreviousStock: previous,
		NewStock:      current,
		Reason:        reason,
		Actor:         actor,
		Occurred:      at,
	})
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ domain.ProductRepository = (*ProductStore)(nil)
var _ domain.StockLedger = (*ProductStore)(nil)
