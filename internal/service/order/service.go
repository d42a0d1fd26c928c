package order

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/messaging/kafka"
	"github.com/Harish222600/sonica-backend/internal/metrics"
	"github.com/Harish222600/sonica-backend/internal/service/payment"
)

// maxSaveRetries ограничивает число повторов при конфликте версий.
const maxSaveRetries = 3

// Config задаёт поведение сервиса заказов.
type Config struct {
	// StrictTransitions включает строгую проверку админских переходов статуса:
	// только вперёд вдоль жизненного цикла. В lax-режиме допускается любой
	// валидный нетерминальный переход (ручное исправление операторами).
	StrictTransitions bool
	// Currency — код валюты для платёжного шлюза.
	Currency string
}

// Service реализует жизненный цикл заказа: корзина, оформление с групповым
// резервированием, оплата, отмена с компенсацией и назначение доставки.
type Service struct {
	products   domain.ProductRepository
	ledger     domain.StockLedger
	carts      domain.CartRepository
	orders     domain.OrderRepository
	deliveries domain.DeliveryRepository
	partners   domain.PartnerRepository
	outbox     domain.OutboxRepository
	gateway    domain.PaymentGateway
	signer     *payment.Signer
	metrics    *metrics.OrderMetrics
	logger     *log.Entry
	cfg        Config
}

// Deps перечисляет зависимости сервиса заказов.
type Deps struct {
	Products   domain.ProductRepository
	Ledger     domain.StockLedger
	Carts      domain.CartRepository
	Orders     domain.OrderRepository
	Deliveries domain.DeliveryRepository
	Partners   domain.PartnerRepository
	Outbox     domain.OutboxRepository
	Gateway    domain.PaymentGateway
	Signer     *payment.Signer
	Metrics    *metrics.OrderMetrics
	Logger     *log.Entry
}

// NewService создаёт сервис заказов.
func NewService(deps Deps, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}

	return &Service{
		products:   deps.Products,
		ledger:     deps.Ledger,
		carts:      deps.Carts,
		orders:     deps.Orders,
		deliveries: deps.Deliveries,
		partners:   deps.Partners,
		outbox:     deps.Outbox,
		gateway:    deps.Gateway,
		signer:     deps.Signer,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Get возвращает заказ; чужие заказы доступны только администратору.
func (s *Service) Get(principal domain.Principal, orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != principal.ID && !principal.IsAdmin() {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

// ListMine возвращает страницу заказов пользователя.
func (s *Service) ListMine(userID string, page, limit int) ([]domain.Order, int, error) {
	return s.orders.ListByUser(userID, page, limit)
}

// ListAll возвращает страницу всех заказов, опционально по статусу. Только для администратора.
func (s *Service) ListAll(principal domain.Principal, status domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	if !principal.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, 0, domain.ErrInvalidTransition
	}
	return s.orders.List(status, page, limit)
}

// saveWithRetry перечитывает заказ и применяет mutate до успешного Save,
// повторяя при конфликте версий.
func (s *Service) saveWithRetry(orderID string, mutate func(*domain.Order) error) (domain.Order, error) {
	var lastErr error

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		order, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}

		if err := mutate(&order); err != nil {
			return domain.Order{}, err
		}
		order.UpdatedAt = time.Now().UTC()

		err = s.orders.Save(order)
		if err == nil {
			order.Version++
			return order, nil
		}
		if !domain.IsVersionConflict(err) {
			return domain.Order{}, err
		}

		lastErr = err
		s.metrics.RecordVersionConflict()
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"attempt":  attempt + 1,
		}).Warn("version conflict detected, retrying")
	}

	return domain.Order{}, lastErr
}

// emitEvent кладёт событие заказа в transactional outbox.
func (s *Service) emitEvent(order domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.OrderNumber, order.UserID, string(order.Status), order.AmountMinor, metadata)
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Warn("failed to enqueue order event")
	}
}
