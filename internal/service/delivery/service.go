package delivery

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/messaging/kafka"
	"github.com/Harish222600/sonica-backend/internal/metrics"
)

const maxSaveRetries = 3

// deliveryRank задаёт порядок статусов доставки на happy path.
var deliveryRank = map[domain.DeliveryStatus]int{
	domain.DeliveryStatusAssigned:       0,
	domain.DeliveryStatusPicked:         1,
	domain.DeliveryStatusInTransit:      2,
	domain.DeliveryStatusOutForDelivery: 3,
	domain.DeliveryStatusDelivered:      4,
}

// canAdvance проверяет переход доставки: вперёд вдоль happy path
// либо в failed из любого нетерминального статуса.
func canAdvance(from, to domain.DeliveryStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == domain.DeliveryStatusFailed {
		return true
	}
	fromRank, okFrom := deliveryRank[from]
	toRank, okTo := deliveryRank[to]
	return okFrom && okTo && toRank > fromRank
}

// Service ведёт жизненный цикл доставки и проецирует его на статус заказа.
type Service struct {
	deliveries domain.DeliveryRepository
	orders     domain.OrderRepository
	files      domain.FileStorage
	outbox     domain.OutboxRepository
	metrics    *metrics.OrderMetrics
	logger     *log.Entry
}

// Deps перечисляет зависимости сервиса доставки.
type Deps struct {
	Deliveries domain.DeliveryRepository
	Orders     domain.OrderRepository
	Files      domain.FileStorage
	Outbox     domain.OutboxRepository
	Metrics    *metrics.OrderMetrics
	Logger     *log.Entry
}

// NewService создаёт сервис доставки.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "delivery-service")
	}
	return &Service{
		deliveries: deps.Deliveries,
		orders:     deps.Orders,
		files:      deps.Files,
		outbox:     deps.Outbox,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Get возвращает доставку. Доступ: назначенный курьер, владелец заказа, администратор.
func (s *Service) Get(principal domain.Principal, deliveryID string) (domain.Delivery, error) {
	delivery, err := s.deliveries.Get(deliveryID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if err := s.authorize(principal, delivery); err != nil {
		return domain.Delivery{}, err
	}
	return delivery, nil
}

// GetByOrder возвращает доставку заказа.
func (s *Service) GetByOrder(principal domain.Principal, orderID string) (domain.Delivery, error) {
	delivery, err := s.deliveries.GetByOrder(orderID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if err := s.authorize(principal, delivery); err != nil {
		return domain.Delivery{}, err
	}
	return delivery, nil
}

func (s *Service) authorize(principal domain.Principal, delivery domain.Delivery) error {
	if principal.IsAdmin() || delivery.AssignedTo(principal.ID) {
		return nil
	}
	order, err := s.orders.Get(delivery.OrderID)
	if err != nil {
		return err
	}
	if order.UserID != principal.ID {
		return domain.ErrForbidden
	}
	return nil
}

// ListMine возвращает страницу доставок курьера.
func (s *Service) ListMine(partnerID string, page, limit int) ([]domain.Delivery, int, error) {
	return s.deliveries.ListByPartner(partnerID, page, limit)
}

// UpdateInput — параметры перехода доставки.
type UpdateInput struct {
	Status   domain.DeliveryStatus
	Note     string
	Location string
	// FailureReason обязателен для перехода в failed.
	FailureReason string
	// CustomerSignature и ProofOfDelivery принимаются при вручении.
	CustomerSignature string
	ProofOfDelivery   string
}

// SetStatus переводит доставку в новый статус от имени назначенного курьера
// (или администратора) и проецирует переход на статус заказа.
func (s *Service) SetStatus(principal domain.Principal, deliveryID string, input UpdateInput) (domain.Delivery, error) {
	if !input.Status.Valid() {
		return domain.Delivery{}, domain.ErrInvalidTransition
	}

	delivery, err := s.saveWithRetry(deliveryID, func(d *domain.Delivery) error {
		if !principal.IsAdmin() && !d.AssignedTo(principal.ID) {
			return domain.ErrForbidden
		}
		if !canAdvance(d.Status, input.Status) {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		d.Status = input.Status
		switch input.Status {
		case domain.DeliveryStatusDelivered:
			d.ActualDeliveryDate = now
			d.CustomerSignature = input.CustomerSignature
			d.ProofOfDelivery = input.ProofOfDelivery
			d.Attempts++
		case domain.DeliveryStatusFailed:
			d.FailureReason = input.FailureReason
			d.Attempts++
		}
		d.AppendHistory(input.Status, input.Note, input.Location, principal.ID, now)
		return nil
	})
	if err != nil {
		return domain.Delivery{}, err
	}

	s.metrics.RecordDeliveryTransition(string(delivery.Status))
	s.projectOntoOrder(delivery, principal.ID)

	eventType := kafka.EventTypeDeliveryStatus
	if delivery.Status == domain.DeliveryStatusFailed {
		eventType = kafka.EventTypeDeliveryFailed
	}
	s.emitEvent(delivery, eventType)

	s.logger.WithFields(log.Fields{
		"delivery_id": delivery.ID,
		"order_id":    delivery.OrderID,
		"status":      delivery.Status,
	}).Info("delivery status updated")

	return delivery, nil
}

// ConfirmInput — параметры терминального подтверждения вручения.
type ConfirmInput struct {
	CustomerSignature string
	ProofOfDelivery   string
	Note              string
}

// Confirm — терминальное подтверждение вручения курьером (или администратором):
// доставка принудительно переводится в delivered с подписью и подтверждением,
// а заказ — сразу в completed.
func (s *Service) Confirm(principal domain.Principal, deliveryID string, input ConfirmInput) (domain.Delivery, error) {
	delivery, err := s.saveWithRetry(deliveryID, func(d *domain.Delivery) error {
		if !principal.IsAdmin() && !d.AssignedTo(principal.ID) {
			return domain.ErrForbidden
		}
		if d.Status.Terminal() {
			return domain.ErrInvalidTransition
		}

		now := time.Now().UTC()
		d.Status = domain.DeliveryStatusDelivered
		d.ActualDeliveryDate = now
		d.CustomerSignature = input.CustomerSignature
		if input.ProofOfDelivery != "" {
			d.ProofOfDelivery = input.ProofOfDelivery
		}
		d.Attempts++
		note := input.Note
		if note == "" {
			note = "delivery confirmed"
		}
		d.AppendHistory(domain.DeliveryStatusDelivered, note, "", principal.ID, now)
		return nil
	})
	if err != nil {
		return domain.Delivery{}, err
	}

	s.metrics.RecordDeliveryTransition(string(domain.DeliveryStatusDelivered))
	s.completeOrder(delivery, principal.ID)
	s.emitEvent(delivery, kafka.EventTypeDeliveryStatus)

	s.logger.WithFields(log.Fields{
		"delivery_id": delivery.ID,
		"order_id":    delivery.OrderID,
	}).Info("delivery confirmed")

	return delivery, nil
}

// completeOrder закрывает заказ по подтверждённому вручению.
func (s *Service) completeOrder(delivery domain.Delivery, actor string) {
	now := time.Now().UTC()
	updated, err := s.saveOrderWithRetry(delivery.OrderID, func(o *domain.Order) error {
		if !o.Status.CanAdvanceTo(domain.OrderStatusCompleted) {
			return errNoProjection
		}
		o.Status = domain.OrderStatusCompleted
		o.Delivery.ActualDate = delivery.ActualDeliveryDate
		o.AppendHistory(domain.OrderStatusCompleted, "delivery confirmed", actor, now)
		return nil
	})
	if err != nil {
		if err != errNoProjection {
			s.logger.WithError(err).WithFields(log.Fields{
				"delivery_id": delivery.ID,
				"order_id":    delivery.OrderID,
			}).Error("failed to complete order on delivery confirmation")
		}
		return
	}

	s.metrics.RecordOrderCompleted()
	s.emitOrderEvent(updated, kafka.EventTypeOrderCompleted)
}

// ConfirmReceipt — подтверждение получения покупателем: доставленный заказ
// переводится в completed.
func (s *Service) ConfirmReceipt(principal domain.Principal, orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != principal.ID && !principal.IsAdmin() {
		return domain.Order{}, domain.ErrForbidden
	}
	if order.Status != domain.OrderStatusDelivered {
		return domain.Order{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	updated, err := s.saveOrderWithRetry(orderID, func(o *domain.Order) error {
		if o.Status != domain.OrderStatusDelivered {
			return domain.ErrInvalidTransition
		}
		o.Status = domain.OrderStatusCompleted
		o.AppendHistory(domain.OrderStatusCompleted, "delivery confirmed by customer", principal.ID, now)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCompleted()
	s.emitOrderEvent(updated, kafka.EventTypeOrderCompleted)

	return updated, nil
}

// UploadProof сохраняет файл подтверждения вручения и прикрепляет URL к доставке.
func (s *Service) UploadProof(principal domain.Principal, deliveryID string, data []byte, contentType string) (domain.Delivery, error) {
	if s.files == nil {
		return domain.Delivery{}, fmt.Errorf("file storage is not configured")
	}

	current, err := s.deliveries.Get(deliveryID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if !principal.IsAdmin() && !current.AssignedTo(principal.ID) {
		return domain.Delivery{}, domain.ErrForbidden
	}

	url, err := s.files.Store(data, "delivery-proofs", deliveryID, contentType)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("store proof of delivery: %w", err)
	}

	return s.saveWithRetry(deliveryID, func(d *domain.Delivery) error {
		d.ProofOfDelivery = url
		return nil
	})
}

// projectOntoOrder отражает переход доставки на статус заказа.
// Не каждый статус доставки двигает заказ: например, out_for_delivery
// после in_transit оставляет заказ в shipped.
func (s *Service) projectOntoOrder(delivery domain.Delivery, actor string) {
	target, ok := delivery.Status.ProjectOrderStatus()
	if !ok {
		return
	}

	now := time.Now().UTC()
	if _, err := s.saveOrderWithRetry(delivery.OrderID, func(o *domain.Order) error {
		if o.Status == target {
			return errNoProjection
		}
		if !o.Status.CanAdvanceTo(target) {
			return errNoProjection
		}
		o.Status = target
		if target == domain.OrderStatusDelivered {
			o.Delivery.ActualDate = now
		}
		o.AppendHistory(target, "delivery "+string(delivery.Status), actor, now)
		return nil
	}); err != nil && err != errNoProjection {
		s.logger.WithError(err).WithFields(log.Fields{
			"delivery_id": delivery.ID,
			"order_id":    delivery.OrderID,
		}).Error("failed to project delivery status onto order")
	}
}

// errNoProjection сигнализирует, что заказ двигать не нужно; наружу не отдаётся.
var errNoProjection = fmt.Errorf("no order projection required")

func (s *Service) saveWithRetry(deliveryID string, mutate func(*domain.Delivery) error) (domain.Delivery, error) {
	var lastErr error

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		delivery, err := s.deliveries.Get(deliveryID)
		if err != nil {
			return domain.Delivery{}, err
		}

		if err := mutate(&delivery); err != nil {
			return domain.Delivery{}, err
		}
		delivery.UpdatedAt = time.Now().UTC()

		err = s.deliveries.Save(delivery)
		if err == nil {
			delivery.Version++
			return delivery, nil
		}
		if !domain.IsVersionConflict(err) {
			return domain.Delivery{}, err
		}

		lastErr = err
		s.metrics.RecordVersionConflict()
	}

	return domain.Delivery{}, lastErr
}

func (s *Service) saveOrderWithRetry(orderID string, mutate func(*domain.Order) error) (domain.Order, error) {
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
	}

	return domain.Order{}, lastErr
}

func (s *Service) emitEvent(delivery domain.Delivery, eventType kafka.EventType) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewDeliveryEvent(eventType, delivery.ID, delivery.OrderID, delivery.PartnerID, string(delivery.Status))
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("delivery_id", delivery.ID).Warn("failed to marshal delivery event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "delivery",
		AggregateID:   delivery.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("delivery_id", delivery.ID).Warn("failed to enqueue delivery event")
	}
}

func (s *Service) emitOrderEvent(order domain.Order, eventType kafka.EventType) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.OrderNumber, order.UserID, string(order.Status), order.AmountMinor, nil)
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
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order event")
	}
}
