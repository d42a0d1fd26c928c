package domain

import "time"

// CartItem — одна позиция корзины. Цена фиксируется в момент добавления
// и не пересчитывается при последующих изменениях цены товара.
type CartItem struct {
	ProductID  string
	Qty        int32
	PriceMinor int64
	AddedAt    time.Time
}

// Cart — корзина покупателя, одна на пользователя, создаётся лениво.
// При успешном оформлении заказа корзина очищается, но не удаляется.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalMinor возвращает сумму корзины по зафиксированным ценам позиций.
func (c *Cart) TotalMinor() int64 {
	var total int64
	for _, item := range c.Items {
		total += int64(item.Qty) * item.PriceMinor
	}
	return total
}

// FindItem возвращает индекс позиции с данным товаром или -1.
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Validate проверяет, корректно ли заполнены позиции корзины.
func (c *Cart) Validate() []error {
	var errs []error

	if c.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	for _, item := range c.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrPriceNegative)
		}
	}

	return errs
}
