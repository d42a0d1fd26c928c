package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора покупателя.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка неизвестной категории товара.
	ErrCategoryInvalid = errors.New("unknown product category")
	// Ошибка неизвестного типа складского движения.
	ErrMovementTypeInvalid = errors.New("unknown stock movement type")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка при некорректном количестве (<= 0).
	ErrQtyInvalid = errors.New("qty must be greater than zero")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибка пустого адреса доставки при оформлении заказа.
	ErrShippingAddressRequired = errors.New("shipping address is required")
	// Ошибка рейтинга вне диапазона 1..5.
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartNotFound возвращается, если у пользователя ещё нет корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound возвращается, если позиции нет в корзине.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDeliveryNotFound возвращается, если доставка не найдена.
	ErrDeliveryNotFound = errors.New("delivery not found")
	// ErrReviewNotFound возвращается, если отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")

	// ErrCartEmpty — попытка оформить заказ по пустой корзине.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrInsufficientStock — запрошенное количество превышает доступный остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition — недопустимый переход статуса заказа или доставки.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyPaid — повторная попытка подтвердить уже оплаченный заказ.
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrDuplicateReview — отзыв для этой пары (товар, пользователь) или заказа уже существует.
	ErrDuplicateReview = errors.New("review already exists")
	// ErrSignatureMismatch — подпись платёжного уведомления не прошла проверку.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrForbidden — у принципала нет прав на операцию или объект.
	ErrForbidden = errors.New("operation is not allowed for this principal")
	// ErrReviewNotEligible — не выполнены условия для создания отзыва.
	ErrReviewNotEligible = errors.New("review eligibility check failed")
	// ErrPartnerNotAssigned — у доставки/заказа не назначен курьер.
	ErrPartnerNotAssigned = errors.New("delivery partner is not assigned")

	// ErrVersionConflict сигнализирует о конфликте оптимистичных версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу "сущность не найдена".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrDeliveryNotFound) ||
		errors.Is(err, ErrReviewNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
