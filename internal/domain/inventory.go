package domain

import "time"

// MovementType классифицирует запись складского журнала.
type MovementType string

const (
	// MovementIn — пополнение остатка (приход).
	MovementIn MovementType = "in"
	// MovementOut — списание остатка (расход, в т.ч. подтверждённая продажа).
	MovementOut MovementType = "out"
	// MovementReserved — удержание единиц под неоплаченный заказ.
	MovementReserved MovementType = "reserved"
	// MovementReleased — снятие резерва (отмена заказа).
	MovementReleased MovementType = "released"
	// MovementReturned — возврат товара покупателем.
	MovementReturned MovementType = "returned"
	// MovementAdjustment — ручная корректировка остатка администратором.
	MovementAdjustment MovementType = "adjustment"
)

// Valid проверяет, что тип движения относится к поддерживаемым значениям.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementReserved, MovementReleased, MovementReturned, MovementAdjustment:
		return true
	default:
		return false
	}
}

// StockMovement — запись append-only журнала движения остатков.
// Записывается в одной транзакции с изменением счётчиков товара.
type StockMovement struct {
	ID        string
	ProductID string
	Type      MovementType
	// Qty — знаковое изменение: положительное для прихода, отрицательное для расхода.
	Qty           int32
	PreviousStock int32
	NewStock      int32
	Reason        string
	Actor         string
	Occurred      time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля движения.
func (m *StockMovement) Validate() []error {
	var errs []error

	if m.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if !m.Type.Valid() {
		errs = append(errs, ErrMovementTypeInvalid)
	}
	if m.Qty == 0 {
		errs = append(errs, ErrQtyInvalid)
	}

	return errs
}
