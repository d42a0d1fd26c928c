package domain

// ProductFilter задаёт параметры выборки каталога.
type ProductFilter struct {
	Category Category
	Query    string
	// ActiveOnly скрывает снятые с продажи товары (публичная выдача).
	ActiveOnly bool
	Page       int
	Limit      int
}

// ReservationLine — пара (товар, количество) для группового резервирования.
type ReservationLine struct {
	ProductID string
	Qty       int32
}

// ProductRepository хранит товары каталога.
type ProductRepository interface {
	Create(product Product) error
	Get(id string) (Product, error)
	// List возвращает страницу товаров и общее число подходящих под фильтр.
	List(filter ProductFilter) ([]Product, int, error)
	Save(product Product) error
	Delete(id string) error
	// UpdateRating перезаписывает агрегированный рейтинг товара.
	UpdateRating(productID string, summary RatingSummary) error
	// LowStock возвращает товары, доступный остаток которых не выше порога.
	LowStock(limit int) ([]Product, error)
}

// StockLedger — журнал складских операций поверх счётчиков товара.
// Каждая операция атомарно меняет счётчики и пишет запись движения;
// условие "доступно не меньше запрошенного" проверяется в том же обновлении,
// а не отдельным чтением.
type StockLedger interface {
	// ReserveAll резервирует все позиции атомарно: при нехватке по любой из них
	// ни одна не резервируется и возвращается ErrInsufficientStock.
	ReserveAll(lines []ReservationLine, actor string) error
	// Release снимает резерв, не опуская его ниже нуля.
	Release(productID string, qty int32, reason, actor string) error
	// Commit переводит зарезервированные единицы в проданные:
	// уменьшает и остаток, и резерв.
	Commit(productID string, qty int32, reason, actor string) error
	// AddStock увеличивает остаток (приход).
	AddStock(productID string, qty int32, reason, actor string) error
	// RemoveStock списывает доступный остаток, не затрагивая резерв.
	RemoveStock(productID string, qty int32, reason, actor string) error
	// Adjust выставляет остаток напрямую, записывая знаковую корректировку.
	Adjust(productID string, newTotal int32, reason, actor string) error
	// Movements возвращает журнал движений товара, новые записи первыми.
	Movements(productID string, limit int) ([]StockMovement, error)
}

// CartRepository хранит корзины покупателей.
type CartRepository interface {
	GetByUser(userID string) (Cart, error)
	// Save перезаписывает корзину целиком (upsert).
	Save(cart Cart) error
}

// OrderRepository хранит заказы.
type OrderRepository interface {
	Create(order Order) error
	Get(id string) (Order, error)
	ListByUser(userID string, page, limit int) ([]Order, int, error)
	// List возвращает страницу заказов, опционально фильтруя по статусу (пустой — все).
	List(status OrderStatus, page, limit int) ([]Order, int, error)
	// Save перезаписывает заказ, проверяя версию (optimistic locking).
	Save(order Order) error
	// CountByStatus возвращает распределение заказов по статусам.
	CountByStatus() (map[OrderStatus]int, error)
	// HasPurchased сообщает, есть ли у пользователя доставленный или завершённый
	// заказ, содержащий данный товар.
	HasPurchased(userID, productID string) (bool, error)
}

// DeliveryRepository хранит доставки.
type DeliveryRepository interface {
	Create(delivery Delivery) error
	Get(id string) (Delivery, error)
	GetByOrder(orderID string) (Delivery, error)
	ListByPartner(partnerID string, page, limit int) ([]Delivery, int, error)
	Save(delivery Delivery) error
}

// PartnerRepository хранит профили курьеров.
type PartnerRepository interface {
	// Ensure создаёт профиль, если его ещё нет; существующий не трогает.
	Ensure(profile PartnerProfile) error
	Get(partnerID string) (PartnerProfile, error)
	UpdateRating(partnerID string, summary RatingSummary) error
}

// ReviewRepository хранит отзывы.
type ReviewRepository interface {
	// Create сохраняет отзыв; дубликат по (товар, пользователь) или заказу
	// возвращает ErrDuplicateReview.
	Create(review Review) error
	Get(id string) (Review, error)
	Save(review Review) error
	Delete(id string) error
	ListByProduct(productID string, page, limit int) ([]Review, int, error)
	// ApprovedRatings возвращает оценки одобренных отзывов цели:
	// товара для kind == product, курьера для kind == delivery.
	ApprovedRatings(kind ReviewKind, targetID string) ([]int32, error)
}

// PaymentIntent — платёжное намерение, созданное шлюзом.
type PaymentIntent struct {
	IntentID    string
	AmountMinor int64
	Currency    string
}

// RefundResult — результат запроса возврата средств.
type RefundResult struct {
	RefundID string
	Status   string
}

// PaymentGateway описывает взаимодействие с внешним платёжным провайдером.
type PaymentGateway interface {
	// CreateIntent инициирует платёж на сумму заказа.
	CreateIntent(amountMinor int64, currency, reference string) (PaymentIntent, error)
	// Refund инициирует возврат средств (для отмен оплаченных заказов).
	Refund(paymentID string, amountMinor int64, reason string) (RefundResult, error)
}

// FileStorage сохраняет бинарные объекты и возвращает публичный URL.
// Ядро хранит только возвращённую строку.
type FileStorage interface {
	Store(data []byte, bucket, path, contentType string) (string, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
