package inventory

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/metrics"
)

// Service объединяет каталог и складские операции: публичную выдачу товаров,
// административный CRUD и изменения остатков через журнал движений.
type Service struct {
	products domain.ProductRepository
	ledger   domain.StockLedger
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// Deps перечисляет зависимости сервиса каталога и склада.
type Deps struct {
	Products domain.ProductRepository
	Ledger   domain.StockLedger
	Metrics  *metrics.OrderMetrics
	Logger   *log.Entry
}

// NewService создаёт сервис каталога и склада.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "inventory-service")
	}
	return &Service{
		products: deps.Products,
		ledger:   deps.Ledger,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// ListProducts возвращает публичную страницу каталога: только активные товары.
func (s *Service) ListProducts(filter domain.ProductFilter) ([]domain.Product, int, error) {
	filter.ActiveOnly = true
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, domain.ErrCategoryInvalid
	}
	return s.products.List(filter)
}

// ListAllProducts возвращает страницу каталога без фильтра активности.
func (s *Service) ListAllProducts(principal domain.Principal, filter domain.ProductFilter) ([]domain.Product, int, error) {
	if !principal.CanManageStock() {
		return nil, 0, domain.ErrForbidden
	}
	return s.products.List(filter)
}

// GetProduct возвращает товар; снятые с продажи видны только персоналу.
func (s *Service) GetProduct(principal domain.Principal, id string) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	if !product.Active && !principal.CanManageStock() {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ProductInput — параметры создания и правки товара.
type ProductInput struct {
	Name               string
	Description        string
	Category           domain.Category
	PriceMinor         int64
	DiscountPriceMinor int64
	InitialStock       int32
	LowStockThreshold  int32
	ImageURL           string
	Active             bool
}

// CreateProduct заводит товар каталога. Начальный остаток записывается
// приходным движением.
func (s *Service) CreateProduct(principal domain.Principal, input ProductInput) (domain.Product, error) {
	if !principal.CanManageStock() {
		return domain.Product{}, domain.ErrForbidden
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:                 uuid.NewString(),
		Name:               input.Name,
		Description:        input.Description,
		Category:           input.Category,
		PriceMinor:         input.PriceMinor,
		DiscountPriceMinor: input.DiscountPriceMinor,
		LowStockThreshold:  input.LowStockThreshold,
		ImageURL:           input.ImageURL,
		Active:             input.Active,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}
	if input.InitialStock < 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	if err := s.products.Create(product); err != nil {
		return domain.Product{}, err
	}

	if input.InitialStock > 0 {
		if err := s.ledger.AddStock(product.ID, input.InitialStock, "initial stock", principal.ID); err != nil {
			return domain.Product{}, err
		}
		product.Stock = input.InitialStock
		s.metrics.RecordStockMovement(string(domain.MovementIn))
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("product created")

	return product, nil
}

// UpdateProduct правит каталожные поля товара; остатки не трогает.
func (s *Service) UpdateProduct(principal domain.Principal, id string, input ProductInput) (domain.Product, error) {
	if !principal.CanManageStock() {
		return domain.Product{}, domain.ErrForbidden
	}

	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.PriceMinor = input.PriceMinor
	product.DiscountPriceMinor = input.DiscountPriceMinor
	product.LowStockThreshold = input.LowStockThreshold
	product.ImageURL = input.ImageURL
	product.Active = input.Active
	product.UpdatedAt = time.Now().UTC()

	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	if err := s.products.Save(product); err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

// DeleteProduct снимает товар с продажи. Товары с историей заказов не удаляются
// физически, а деактивируются.
func (s *Service) DeleteProduct(principal domain.Principal, id string) error {
	if !principal.CanManageStock() {
		return domain.ErrForbidden
	}

	product, err := s.products.Get(id)
	if err != nil {
		return err
	}
	if product.Reserved > 0 {
		return domain.ErrInsufficientStock
	}

	product.Active = false
	product.UpdatedAt = time.Now().UTC()
	return s.products.Save(product)
}

// AddStock увеличивает остаток товара приходным движением.
func (s *Service) AddStock(principal domain.Principal, productID string, qty int32, reason string) (domain.Product, error) {
	if !principal.CanManageStock() {
		return domain.Product{}, domain.ErrForbidden
	}
	if err := s.ledger.AddStock(productID, qty, reason, principal.ID); err != nil {
		return domain.Product{}, err
	}
	s.metrics.RecordStockMovement(string(domain.MovementIn))
	return s.products.Get(productID)
}

// RemoveStock списывает доступный остаток (брак, недостача).
func (s *Service) RemoveStock(principal domain.Principal, productID string, qty int32, reason string) (domain.Product, error) {
	if !principal.CanManageStock() {
		return domain.Product{}, domain.ErrForbidden
	}
	if err := s.ledger.RemoveStock(productID, qty, reason, principal.ID); err != nil {
		return domain.Product{}, err
	}
	s.metrics.RecordStockMovement(string(domain.MovementOut))
	return s.products.Get(productID)
}

// AdjustStock выставляет остаток напрямую по итогам инвентаризации.
func (s *Service) AdjustStock(principal domain.Principal, productID string, newTotal int32, reason string) (domain.Product, error) {
	if !principal.CanManageStock() {
		return domain.Product{}, domain.ErrForbidden
	}
	if err := s.ledger.Adjust(productID, newTotal, reason, principal.ID); err != nil {
		return domain.Product{}, err
	}
	s.metrics.RecordStockMovement(string(domain.MovementAdjustment))
	return s.products.Get(productID)
}

// Movements возвращает журнал складских движений товара.
func (s *Service) Movements(principal domain.Principal, productID string, limit int) ([]domain.StockMovement, error) {
	if !principal.CanManageStock() {
		return nil, domain.ErrForbidden
	}
	if _, err := s.products.Get(productID); err != nil {
		return nil, err
	}
	return s.ledger.Movements(productID, limit)
}

// LowStock возвращает товары с доступным остатком не выше порога.
func (s *Service) LowStock(principal domain.Principal, limit int) ([]domain.Product, error) {
	if !principal.CanManageStock() {
		return nil, domain.ErrForbidden
	}
	return s.products.LowStock(limit)
}
