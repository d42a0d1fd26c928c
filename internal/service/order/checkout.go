package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/messaging/kafka"
)

// Checkout оформляет заказ из корзины пользователя. Все позиции
// резервируются одной атомарной операцией: нехватка любой из них
// оставляет склад нетронутым и возвращает ErrInsufficientStock.
func (s *Service) Checkout(userID, shippingAddress string) (domain.Order, error) {
	started := time.Now()

	if shippingAddress == "" {
		return domain.Order{}, domain.ErrShippingAddressRequired
	}

	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, domain.ErrCartEmpty
		}
		return domain.Order{}, err
	}
	if len(cart.Items) == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(cart.Items))
	lines := make([]domain.ReservationLine, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product, err := s.products.Get(cartItem.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if !product.Active {
			return domain.Order{}, domain.ErrProductNotFound
		}

		// Цена берётся из корзины: снятый при добавлении снимок действует,
		// пока позиция не удалена или не добавлена заново.
		items = append(items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			Name:       product.Name,
			Qty:        cartItem.Qty,
			PriceMinor: cartItem.PriceMinor,
			CreatedAt:  now,
		})
		lines = append(lines, domain.ReservationLine{
			ProductID: product.ID,
			Qty:       cartItem.Qty,
		})
	}

	if err := s.ledger.ReserveAll(lines, userID); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || domain.IsNotFound(err) {
			s.metrics.RecordReservationFailure()
		}
		return domain.Order{}, err
	}

	var total int64
	for _, item := range items {
		total += int64(item.Qty) * item.PriceMinor
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		OrderNumber:     domain.NewOrderNumber(now),
		Status:          domain.OrderStatusCreated,
		Items:           items,
		AmountMinor:     total,
		ShippingAddress: shippingAddress,
		Payment:         domain.PaymentInfo{State: domain.PaymentStatePending},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.AppendHistory(domain.OrderStatusCreated, "order placed", userID, now)

	if err := s.orders.Create(order); err != nil {
		s.releaseReservation(order, "checkout rollback")
		return domain.Order{}, err
	}

	if err := s.ClearCart(userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to clear cart after checkout")
	}

	s.metrics.RecordOrderCreated()
	s.metrics.RecordCheckoutDuration(time.Since(started))
	s.emitEvent(order, kafka.EventTypeOrderCreated, nil)

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"amount_minor": order.AmountMinor,
	}).Info("order created")

	return order, nil
}

// CreatePaymentIntent инициирует платёж по заказу на платёжном шлюзе.
func (s *Service) CreatePaymentIntent(principal domain.Principal, orderID string) (domain.PaymentIntent, error) {
	order, err := s.Get(principal, orderID)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	if order.Payment.State == domain.PaymentStateCompleted {
		return domain.PaymentIntent{}, domain.ErrAlreadyPaid
	}
	if order.Status != domain.OrderStatusCreated {
		return domain.PaymentIntent{}, domain.ErrInvalidTransition
	}

	intent, err := s.gateway.CreateIntent(order.AmountMinor, s.cfg.Currency, order.OrderNumber)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}

	if _, err := s.saveWithRetry(orderID, func(o *domain.Order) error {
		if o.Payment.State == domain.PaymentStateCompleted {
			return domain.ErrAlreadyPaid
		}
		o.Payment.IntentID = intent.IntentID
		return nil
	}); err != nil {
		return domain.PaymentIntent{}, err
	}

	return intent, nil
}

// VerifyPayment проверяет подпись шлюза и отмечает заказ оплаченным.
// Повторный вызов по уже оплаченному заказу возвращает ErrAlreadyPaid,
// не меняя склад и не переписывая платёжные данные.
func (s *Service) VerifyPayment(principal domain.Principal, orderID, paymentID, signature, method string) (domain.Order, error) {
	order, err := s.Get(principal, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.markPaid(order, paymentID, signature, method, principal.ID)
}

// WebhookEvent — полезная нагрузка webhook платёжного шлюза.
type WebhookEvent struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Method    string `json:"method"`
}

// HandlePaymentWebhook обрабатывает уведомление шлюза: проверяет подпись
// сырого тела и отмечает заказ оплаченным от имени самого шлюза.
func (s *Service) HandlePaymentWebhook(body []byte, bodySignature string, event WebhookEvent) (domain.Order, error) {
	if err := s.signer.VerifyWebhook(body, bodySignature); err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.Get(event.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.markPaid(order, event.PaymentID, event.Signature, event.Method, "payment-webhook")
}

func (s *Service) markPaid(order domain.Order, paymentID, signature, method, actor string) (domain.Order, error) {
	if order.Payment.State == domain.PaymentStateCompleted {
		return domain.Order{}, domain.ErrAlreadyPaid
	}
	if order.Payment.IntentID == "" {
		return domain.Order{}, domain.ErrSignatureMismatch
	}
	if err := s.signer.VerifyPayment(order.Payment.IntentID, paymentID, signature); err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanAdvanceTo(domain.OrderStatusPaid) {
		return domain.Order{}, domain.ErrInvalidTransition
	}

	// Сначала фиксируем оплату условным обновлением: из двух конкурентных
	// подтверждений только одно пройдёт проверку версии, и только оно
	// переведёт резерв в продажу.
	now := time.Now().UTC()
	updated, err := s.saveWithRetry(order.ID, func(o *domain.Order) error {
		if o.Payment.State == domain.PaymentStateCompleted {
			return domain.ErrAlreadyPaid
		}
		if !o.Status.CanAdvanceTo(domain.OrderStatusPaid) {
			return domain.ErrInvalidTransition
		}
		o.Status = domain.OrderStatusPaid
		o.Payment.PaymentID = paymentID
		o.Payment.Signature = signature
		o.Payment.Method = method
		o.Payment.State = domain.PaymentStateCompleted
		o.Payment.PaidAt = now
		o.Invoice = domain.Invoice{
			Number:      "INV-" + o.OrderNumber,
			GeneratedAt: now,
		}
		o.AppendHistory(domain.OrderStatusPaid, "payment verified", actor, now)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	// Перевод резерва в продажу идёт после фиксации: запись в журнале
	// восстановима по заказу, а двойного списания уже не случится.
	for _, item := range updated.Items {
		if err := s.ledger.Commit(item.ProductID, item.Qty, "order "+updated.OrderNumber, actor); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id":   updated.ID,
				"product_id": item.ProductID,
			}).Error("failed to commit reservation for paid order")
			continue
		}
		s.metrics.RecordStockMovement(string(domain.MovementOut))
	}

	s.metrics.RecordOrderPaid()
	s.emitEvent(updated, kafka.EventTypeOrderPaid, map[string]interface{}{
		"payment_id": paymentID,
		"method":     method,
	})

	s.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"payment_id":   paymentID,
	}).Info("order paid")

	return updated, nil
}

// releaseReservation снимает резерв по всем позициям заказа.
func (s *Service) releaseReservation(order domain.Order, reason string) {
	for _, item := range order.Items {
		if err := s.ledger.Release(item.ProductID, item.Qty, reason, order.UserID); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
			}).Error("failed to release reservation")
			continue
		}
		s.metrics.RecordStockMovement(string(domain.MovementReleased))
	}
}
