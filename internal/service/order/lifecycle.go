package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/messaging/kafka"
)

// Cancel отменяет заказ. Допускается владельцем или администратором и только
// до отгрузки. Неоплаченный заказ освобождает резерв; по оплаченному
// инициируется возврат средств и товары возвращаются на склад.
func (s *Service) Cancel(principal domain.Principal, orderID, reason string) (domain.Order, error) {
	order, err := s.Get(principal, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.Cancellable() {
		return domain.Order{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	refunded := false

	if order.Payment.State == domain.PaymentStateCompleted {
		result, err := s.gateway.Refund(order.Payment.PaymentID, order.AmountMinor, reason)
		if err != nil {
			return domain.Order{}, err
		}
		refunded = true
		s.logger.WithFields(log.Fields{
			"order_id":  order.ID,
			"refund_id": result.RefundID,
		}).Info("refund initiated")

		// Резерв уже переведён в продажу при оплате, возвращаем товар на склад.
		for _, item := range order.Items {
			if err := s.ledger.AddStock(item.ProductID, item.Qty, "order "+order.OrderNumber+" cancelled", principal.ID); err != nil {
				s.logger.WithError(err).WithFields(log.Fields{
					"order_id":   order.ID,
					"product_id": item.ProductID,
				}).Error("failed to restock cancelled order")
				continue
			}
			s.metrics.RecordStockMovement(string(domain.MovementReturned))
		}
	} else {
		s.releaseReservation(order, "order "+order.OrderNumber+" cancelled")
	}

	updated, err := s.saveWithRetry(orderID, func(o *domain.Order) error {
		if !o.Status.Cancellable() {
			return domain.ErrInvalidTransition
		}
		o.Status = domain.OrderStatusCancelled
		o.CancellationReason = reason
		if refunded {
			o.Payment.State = domain.PaymentStateRefunded
		}
		o.AppendHistory(domain.OrderStatusCancelled, reason, principal.ID, now)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCancelled()
	s.emitEvent(updated, kafka.EventTypeOrderCancelled, map[string]interface{}{
		"reason":   reason,
		"refunded": refunded,
	})

	s.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"reason":       reason,
	}).Info("order cancelled")

	return updated, nil
}

// UpdateStatus — административный перевод заказа в новый статус.
// В строгом режиме разрешено движение только вперёд по жизненному циклу;
// в lax-режиме оператор может выставить любой нетерминальный валидный статус.
// Отмена через этот метод запрещена: у неё отдельная операция с компенсациями.
func (s *Service) UpdateStatus(principal domain.Principal, orderID string, target domain.OrderStatus, note string) (domain.Order, error) {
	if !principal.IsAdmin() {
		return domain.Order{}, domain.ErrForbidden
	}
	if !target.Valid() || target == domain.OrderStatusCancelled {
		return domain.Order{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	updated, err := s.saveWithRetry(orderID, func(o *domain.Order) error {
		if s.cfg.StrictTransitions {
			if !o.Status.CanAdvanceTo(target) {
				return domain.ErrInvalidTransition
			}
		} else if o.Status.Terminal() {
			return domain.ErrInvalidTransition
		}
		o.Status = target
		if target == domain.OrderStatusDelivered {
			o.Delivery.ActualDate = now
		}
		o.AppendHistory(target, note, principal.ID, now)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	event := kafka.EventTypeOrderStatus
	if target == domain.OrderStatusCompleted {
		event = kafka.EventTypeOrderCompleted
		s.metrics.RecordOrderCompleted()
	}
	s.emitEvent(updated, event, map[string]interface{}{"note": note})

	return updated, nil
}

// AssignDelivery назначает курьера на заказ: создаёт сущность доставки или
// перенаправляет уже существующую на другого курьера, лениво заводит профиль
// курьера и фиксирует сводку в заказе.
func (s *Service) AssignDelivery(principal domain.Principal, orderID, partnerID, pickupAddress string, estimatedDate time.Time) (domain.Delivery, error) {
	if !principal.IsAdmin() {
		return domain.Delivery{}, domain.ErrForbidden
	}
	if partnerID == "" {
		return domain.Delivery{}, domain.ErrPartnerNotAssigned
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Delivery{}, err
	}
	// Назначать курьера на отменённый или закрытый заказ нельзя.
	if order.Status.Terminal() {
		return domain.Delivery{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	if err := s.partners.Ensure(domain.PartnerProfile{
		PartnerID: partnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return domain.Delivery{}, err
	}

	delivery, err := s.deliveries.GetByOrder(orderID)
	switch {
	case err == nil:
		// Перенаназначение: та же сущность, новый курьер, статус заново assigned.
		delivery.PartnerID = partnerID
		delivery.EstimatedDate = estimatedDate
		if pickupAddress != "" {
			delivery.PickupAddress = pickupAddress
		}
		delivery.Status = domain.DeliveryStatusAssigned
		delivery.UpdatedAt = now
		delivery.AppendHistory(domain.DeliveryStatusAssigned, "delivery reassigned", "", principal.ID, now)
		if err := s.deliveries.Save(delivery); err != nil {
			return domain.Delivery{}, err
		}
	case domain.IsNotFound(err):
		delivery = domain.Delivery{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			PartnerID:       partnerID,
			Status:          domain.DeliveryStatusAssigned,
			EstimatedDate:   estimatedDate,
			PickupAddress:   pickupAddress,
			DeliveryAddress: order.ShippingAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		delivery.AppendHistory(domain.DeliveryStatusAssigned, "delivery assigned", "", principal.ID, now)
		if err := s.deliveries.Create(delivery); err != nil {
			return domain.Delivery{}, err
		}
	default:
		return domain.Delivery{}, err
	}

	if _, err := s.saveWithRetry(orderID, func(o *domain.Order) error {
		o.Delivery.PartnerID = partnerID
		o.Delivery.EstimatedDate = estimatedDate
		return nil
	}); err != nil {
		return domain.Delivery{}, err
	}

	s.metrics.RecordDeliveryTransition(string(domain.DeliveryStatusAssigned))
	s.emitDeliveryEvent(delivery, kafka.EventTypeDeliveryAssigned)

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"delivery_id": delivery.ID,
		"partner_id":  partnerID,
	}).Info("delivery assigned")

	return delivery, nil
}

func (s *Service) emitDeliveryEvent(delivery domain.Delivery, eventType kafka.EventType) {
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
