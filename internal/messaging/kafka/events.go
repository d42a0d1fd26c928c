package kafka

import "time"

// EventType определяет тип события.
type EventType string

const (
	// Order события
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeOrderPaid      EventType = "order.paid"
	EventTypeOrderCancelled EventType = "order.cancelled"
	EventTypeOrderCompleted EventType = "order.completed"
	EventTypeOrderStatus    EventType = "order.status_changed"

	// Delivery события
	EventTypeDeliveryAssigned EventType = "delivery.assigned"
	EventTypeDeliveryStatus   EventType = "delivery.status_changed"
	EventTypeDeliveryFailed   EventType = "delivery.failed"

	// Inventory события
	EventTypeStockLow      EventType = "inventory.low_stock"
	EventTypeStockAdjusted EventType = "inventory.adjusted"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "sonica.order.events"
	TopicDeliveryEvents  = "sonica.delivery.events"
	TopicInventoryEvents = "sonica.inventory.events"
	TopicDeadLetterQueue = "sonica.dlq" // Dead Letter Queue для failed messages
)

// OrderEvent представляет событие заказа.
type OrderEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	UserID      string                 `json:"user_id"`
	Status      string                 `json:"status"`
	AmountMinor int64                  `json:"amount_minor"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// DeliveryEvent представляет событие доставки.
type DeliveryEvent struct {
	EventType  EventType `json:"event_type"`
	DeliveryID string    `json:"delivery_id"`
	OrderID    string    `json:"order_id"`
	PartnerID  string    `json:"partner_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// InventoryEvent представляет складское событие.
type InventoryEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Stock     int32     `json:"stock"`
	Reserved  int32     `json:"reserved"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, orderNumber, userID, status string, amountMinor int64, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		UserID:      userID,
		Status:      status,
		AmountMinor: amountMinor,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}

// NewDeliveryEvent создает новое событие доставки.
func NewDeliveryEvent(eventType EventType, deliveryID, orderID, partnerID, status string) *DeliveryEvent {
	return &DeliveryEvent{
		EventType:  eventType,
		DeliveryID: deliveryID,
		OrderID:    orderID,
		PartnerID:  partnerID,
		Status:     status,
		Timestamp:  time.Now(),
	}
}
