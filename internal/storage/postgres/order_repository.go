package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// orderRepository хранит заказы в PostgreSQL. Конкурентные обновления
// разрешаются оптимистической блокировкой по колонке version: UPDATE с
// предикатом по старой версии, ноль затронутых строк означает конфликт.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) *orderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, user_id, order_number, status, amount_minor, shipping_address,
	payment_intent_id, payment_id, payment_signature, payment_method, payment_state, paid_at,
	delivery_partner_id, delivery_estimated_date, delivery_actual_date, delivery_notes,
	cancellation_reason, invoice_number, invoice_generated_at,
	version, created_at, updated_at
`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var (
		o             domain.Order
		status        string
		paymentState  string
		paidAt        sql.NullTime
		estimatedDate sql.NullTime
		actualDate    sql.NullTime
		invoiceAt     sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &status, &o.AmountMinor, &o.ShippingAddress,
		&o.Payment.IntentID, &o.Payment.PaymentID, &o.Payment.Signature, &o.Payment.Method, &paymentState, &paidAt,
		&o.Delivery.PartnerID, &estimatedDate, &actualDate, &o.Delivery.Notes,
		&o.CancellationReason, &o.Invoice.Number, &invoiceAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	o.Status = domain.OrderStatus(status)
	o.Payment.State = domain.PaymentState(paymentState)
	if paidAt.Valid {
		o.Payment.PaidAt = paidAt.Time
	}
	if estimatedDate.Valid {
		o.Delivery.EstimatedDate = estimatedDate.Time
	}
	if actualDate.Valid {
		o.Delivery.ActualDate = actualDate.Time
	}
	if invoiceAt.Valid {
		o.Invoice.GeneratedAt = invoiceAt.Time
	}

	return o, nil
}

// nullTime отображает нулевое время в SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, order_number, status, amount_minor, shipping_address,
			payment_intent_id, payment_id, payment_signature, payment_method, payment_state, paid_at,
			delivery_partner_id, delivery_estimated_date, delivery_actual_date, delivery_notes,
			cancellation_reason, invoice_number, invoice_generated_at,
			version, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,$11,$12,
			$13,$14,$15,$16,
			$17,$18,$19,
			$20,$21,$22
		)
	`,
		order.ID, order.UserID, order.OrderNumber, string(order.Status), order.AmountMinor, order.ShippingAddress,
		order.Payment.IntentID, order.Payment.PaymentID, order.Payment.Signature, order.Payment.Method,
		string(order.Payment.State), nullTime(order.Payment.PaidAt),
		order.Delivery.PartnerID, nullTime(order.Delivery.EstimatedDate), nullTime(order.Delivery.ActualDate), order.Delivery.Notes,
		order.CancellationReason, order.Invoice.Number, nullTime(order.Invoice.GeneratedAt),
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrVersionConflict
			return err
		}
		err = fmt.Errorf("insert order: %w", err)
		return err
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, qty, price_minor, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, order.ID, item.ProductID, item.Name, item.Qty, item.PriceMinor, item.CreatedAt); err != nil {
			err = fmt.Errorf("insert order item: %w", err)
			return err
		}
	}

	if err = insertStatusHistory(ctx, tx, order.ID, order.StatusHistory); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return domain.Order{}, err
	}
	if err := r.loadHistory(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, qty, price_minor, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Qty, &item.PriceMinor, &item.CreatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *orderRepository) loadHistory(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, note, actor, occurred
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY occurred, id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("select order history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.StatusHistoryEntry
		var status string
		if err := rows.Scan(&status, &entry.Note, &entry.Actor, &entry.Occurred); err != nil {
			return fmt.Errorf("scan order history: %w", err)
		}
		entry.Status = domain.OrderStatus(status)
		order.StatusHistory = append(order.StatusHistory, entry)
	}
	return rows.Err()
}

func (r *orderRepository) ListByUser(userID string, page, limit int) ([]domain.Order, int, error) {
	return r.list("WHERE user_id = $1", []any{userID}, page, limit)
}

func (r *orderRepository) List(status domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	if status == "" {
		return r.list("", nil, page, limit)
	}
	return r.list("WHERE status = $1", []any{string(status)}, page, limit)
}

func (r *orderRepository) list(where string, args []any, page, limit int) ([]domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	if limit <= 0 {
		limit = total
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM orders %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

// Save обновляет изменяемые поля заказа и переписывает журнал статусов.
// Позиции заказа после создания не меняются и здесь не трогаются.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3,
		    payment_intent_id = $4,
		    payment_id = $5,
		    payment_signature = $6,
		    payment_method = $7,
		    payment_state = $8,
		    paid_at = $9,
		    delivery_partner_id = $10,
		    delivery_estimated_date = $11,
		    delivery_actual_date = $12,
		    delivery_notes = $13,
		    cancellation_reason = $14,
		    invoice_number = $15,
		    invoice_generated_at = $16,
		    version = version + 1,
		    updated_at = $17
		WHERE id = $1 AND version = $2
	`,
		order.ID, order.Version,
		string(order.Status),
		order.Payment.IntentID, order.Payment.PaymentID, order.Payment.Signature,
		order.Payment.Method, string(order.Payment.State), nullTime(order.Payment.PaidAt),
		order.Delivery.PartnerID, nullTime(order.Delivery.EstimatedDate), nullTime(order.Delivery.ActualDate), order.Delivery.Notes,
		order.CancellationReason, order.Invoice.Number, nullTime(order.Invoice.GeneratedAt),
		order.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("update order: %w", err)
		return err
	}

	var affected int64
	affected, err = res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("rows affected: %w", err)
		return err
	}
	if affected == 0 {
		err = r.classifySaveFailure(ctx, tx, order.ID)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_status_history WHERE order_id = $1`, order.ID); err != nil {
		err = fmt.Errorf("clear order history: %w", err)
		return err
	}
	if err = insertStatusHistory(ctx, tx, order.ID, order.StatusHistory); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}

	return nil
}

func (r *orderRepository) classifySaveFailure(ctx context.Context, tx *sql.Tx, orderID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	return domain.ErrVersionConflict
}

func (r *orderRepository) CountByStatus() (map[domain.OrderStatus]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.OrderStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	return counts, nil
}

// HasPurchased сообщает, получал ли пользователь товар в доставленном заказе.
func (r *orderRepository) HasPurchased(userID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var purchased bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items i ON i.order_id = o.id
			WHERE o.user_id = $1
			  AND i.product_id = $2
			  AND o.status IN ('delivered', 'completed')
		)
	`, userID, productID).Scan(&purchased)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}

	return purchased, nil
}

func insertStatusHistory(ctx context.Context, tx *sql.Tx, orderID string, history []domain.StatusHistoryEntry) error {
	for _, entry := range history {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_status_history (order_id, status, note, actor, occurred)
			VALUES ($1,$2,$3,$4,$5)
		`, orderID, string(entry.Status), entry.Note, entry.Actor, entry.Occurred); err != nil {
			return fmt.Errorf("insert order history: %w", err)
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
