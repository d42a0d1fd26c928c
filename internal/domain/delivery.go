package domain

import "time"

// DeliveryStatus описывает жизненный цикл доставки.
type DeliveryStatus string

const (
	// DeliveryStatusAssigned — доставка назначена курьеру.
	DeliveryStatusAssigned DeliveryStatus = "assigned"
	// DeliveryStatusPicked — курьер забрал заказ со склада.
	DeliveryStatusPicked DeliveryStatus = "picked"
	// DeliveryStatusInTransit — заказ в пути.
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	// DeliveryStatusOutForDelivery — курьер выехал к покупателю.
	DeliveryStatusOutForDelivery DeliveryStatus = "out_for_delivery"
	// DeliveryStatusDelivered — заказ вручён. Терминальный статус.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusFailed — доставка не состоялась. Терминальный статус.
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusAssigned, DeliveryStatusPicked, DeliveryStatusInTransit,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус конечным.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusFailed
}

// ProjectOrderStatus возвращает статус заказа, соответствующий статусу доставки,
// и false, если переход доставки не затрагивает заказ.
func (s DeliveryStatus) ProjectOrderStatus() (OrderStatus, bool) {
	switch s {
	case DeliveryStatusPicked:
		return OrderStatusPacked, true
	case DeliveryStatusInTransit, DeliveryStatusOutForDelivery:
		return OrderStatusShipped, true
	case DeliveryStatusDelivered:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// DeliveryHistoryEntry — запись журнала переходов доставки.
type DeliveryHistoryEntry struct {
	Status   DeliveryStatus
	Note     string
	Location string
	Actor    string
	Occurred time.Time
}

// Delivery — сущность доставки, одна на заказ, создаётся при назначении курьера.
type Delivery struct {
	ID                 string
	OrderID            string
	PartnerID          string
	Status             DeliveryStatus
	EstimatedDate      time.Time
	ActualDeliveryDate time.Time
	PickupAddress      string
	DeliveryAddress    string
	CustomerSignature  string
	ProofOfDelivery    string
	FailureReason      string
	Attempts           int32
	StatusHistory      []DeliveryHistoryEntry
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AppendHistory добавляет запись в журнал статусов доставки.
func (d *Delivery) AppendHistory(status DeliveryStatus, note, location, actor string, at time.Time) {
	d.StatusHistory = append(d.StatusHistory, DeliveryHistoryEntry{
		Status:   status,
		Note:     note,
		Location: location,
		Actor:    actor,
		Occurred: at,
	})
}

// AssignedTo проверяет, назначена ли доставка данному курьеру.
func (d *Delivery) AssignedTo(partnerID string) bool {
	return d.PartnerID != "" && d.PartnerID == partnerID
}

// Validate проверяет, корректно ли заполнены ключевые поля доставки.
func (d *Delivery) Validate() []error {
	var errs []error

	if d.OrderID == "" {
		errs = append(errs, ErrOrderNotFound)
	}
	if d.PartnerID == "" {
		errs = append(errs, ErrPartnerNotAssigned)
	}
	if !d.Status.Valid() {
		errs = append(errs, ErrInvalidTransition)
	}

	return errs
}

// PartnerProfile — профиль курьера как цель агрегирования рейтинга.
// Создаётся лениво при первом назначении доставки.
type PartnerProfile struct {
	PartnerID   string
	DisplayName string
	RatingAvg   float64
	RatingCount int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
