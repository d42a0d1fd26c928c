package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusCreated — заказ оформлен, товары зарезервированы, оплата не подтверждена.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPaid — оплата подтверждена, резерв переведён в продажу.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusPacked — заказ собран и передан в доставку.
	OrderStatusPacked OrderStatus = "packed"
	// OrderStatusShipped — заказ в пути.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ вручён покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCompleted — заказ завершён, доставка подтверждена. Терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён до отгрузки. Терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderStatusRank задаёт порядок статусов на happy path для строгой проверки переходов.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusCreated:   0,
	OrderStatusPaid:      1,
	OrderStatusPacked:    2,
	OrderStatusShipped:   3,
	OrderStatusDelivered: 4,
	OrderStatusCompleted: 5,
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusPacked, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanAdvanceTo проверяет строгий переход: только вперёд вдоль happy path
// либо боковой переход в cancelled из разрешённых статусов.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	if target == OrderStatusCancelled {
		return s.Cancellable()
	}
	from, okFrom := orderStatusRank[s]
	to, okTo := orderStatusRank[target]
	return okFrom && okTo && to > from
}

// Cancellable сообщает, допускает ли текущий статус отмену заказа.
// Отгруженные и завершённые заказы отмене не подлежат.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusPacked:
		return true
	default:
		return false
	}
}

// PaymentState описывает состояние оплаты заказа.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

// PaymentInfo — платёжный под-документ заказа.
type PaymentInfo struct {
	// IntentID — идентификатор платёжного намерения на стороне шлюза.
	IntentID string
	// PaymentID — идентификатор фактического платежа на стороне шлюза.
	PaymentID string
	// Signature — подпись, которой шлюз подтвердил платёж.
	Signature string
	Method    string
	State     PaymentState
	PaidAt    time.Time
}

// DeliverySummary — краткая сводка о доставке, хранимая внутри заказа.
// Полная сущность Delivery живёт отдельно и проецирует статусы сюда.
type DeliverySummary struct {
	PartnerID     string
	EstimatedDate time.Time
	ActualDate    time.Time
	Notes         string
}

// OrderItem — позиция заказа: снимок товара на момент оформления,
// не зависящий от последующих правок каталога.
type OrderItem struct {
	ID         string
	ProductID  string
	Name       string
	Qty        int32
	PriceMinor int64
	CreatedAt  time.Time
}

// StatusHistoryEntry — запись append-only журнала переходов статуса.
type StatusHistoryEntry struct {
	Status   OrderStatus
	Note     string
	Actor    string
	Occurred time.Time
}

// Invoice — реквизиты счёта, выписанного по заказу.
type Invoice struct {
	Number      string
	GeneratedAt time.Time
}

// Order агрегирует состояние заказа, снимок позиций и журналы.
type Order struct {
	ID     string
	UserID string
	// OrderNumber — человекочитаемый номер вида SON-<epochMillis>-<seq>,
	// присваивается один раз при создании и никогда не перегенерируется.
	OrderNumber        string
	Status             OrderStatus
	Items              []OrderItem
	AmountMinor        int64
	ShippingAddress    string
	Payment            PaymentInfo
	Delivery           DeliverySummary
	StatusHistory      []StatusHistoryEntry
	CancellationReason string
	Invoice            Invoice
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AppendHistory добавляет запись в журнал статусов заказа.
func (o *Order) AppendHistory(status OrderStatus, note, actor string, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:   status,
		Note:     note,
		Actor:    actor,
		Occurred: at,
	})
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.ShippingAddress == "" {
		errs = append(errs, ErrShippingAddressRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrPriceNegative)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
