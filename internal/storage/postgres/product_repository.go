package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// productRepository реализует ProductRepository и StockLedger поверх PostgreSQL.
// Складские операции выполняются условными UPDATE: ограничение
// "доступно не меньше запрошенного" входит в предикат самого обновления,
// поэтому гонки параллельных оформлений заказа исключены на уровне БД.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию каталога и складского журнала.
func NewProductRepository(store *Store) *productRepository {
	return &productRepository{db: store.DB()}
}

const productColumns = `
	id, name, description, category, price_minor, discount_price_minor,
	stock, reserved, low_stock_threshold, rating_avg, rating_count,
	image_url, active, created_at, updated_at
`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var category string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &category, &p.PriceMinor, &p.DiscountPriceMinor,
		&p.Stock, &p.Reserved, &p.LowStockThreshold, &p.RatingAvg, &p.RatingCount,
		&p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.Category(category)
	return p, nil
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, description, category, price_minor, discount_price_minor,
			stock, reserved, low_stock_threshold, rating_avg, rating_count,
			image_url, active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		product.ID, product.Name, product.Description, string(product.Category),
		product.PriceMinor, product.DiscountPriceMinor,
		product.Stock, product.Reserved, product.LowStockThreshold,
		product.RatingAvg, product.RatingCount,
		product.ImageURL, product.Active, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) List(filter domain.ProductFilter) ([]domain.Product, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where := "WHERE 1=1"
	args := make([]any, 0, 4)
	if filter.ActiveOnly {
		where += " AND active"
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = total
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM products %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// Save перезаписывает каталожные поля; складские счётчики меняются только через ledger.
func (r *productRepository) Save(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2,
		    description = $3,
		    category = $4,
		    price_minor = $5,
		    discount_price_minor = $6,
		    low_stock_threshold = $7,
		    image_url = $8,
		    active = $9,
		    updated_at = $10
		WHERE id = $1
	`,
		product.ID, product.Name, product.Description, string(product.Category),
		product.PriceMinor, product.DiscountPriceMinor, product.LowStockThreshold,
		product.ImageURL, product.Active, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) UpdateRating(productID string, summary domain.RatingSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET rating_avg = $2, rating_count = $3, updated_at = $4
		WHERE id = $1
	`, productID, summary.Average, summary.Count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	return requireAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) LowStock(limit int) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE stock - reserved <= low_stock_threshold
		ORDER BY stock - reserved ASC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock rows: %w", err)
	}

	return products, nil
}

// ReserveAll резервирует все позиции в одной транзакции: нехватка по любой
// из них откатывает резервы остальных.
func (r *productRepository) ReserveAll(lines []domain.ReservationLine, actor string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, line := range lines {
		if line.Qty <= 0 {
			err = domain.ErrQtyInvalid
			return err
		}

		var stock int32
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET reserved = reserved + $2, updated_at = $3
			WHERE id = $1 AND reserved + $2 <= stock
			RETURNING stock
		`, line.ProductID, line.Qty, now).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			err = r.classifyReserveFailure(ctx, tx, line.ProductID)
			return err
		}
		if err != nil {
			err = fmt.Errorf("reserve stock for %s: %w", line.ProductID, err)
			return err
		}

		if err = insertMovement(ctx, tx, domain.StockMovement{
			ID:            uuid.NewString(),
			ProductID:     line.ProductID,
			Type:          domain.MovementReserved,
			Qty:           line.Qty,
			PreviousStock: stock,
			NewStock:      stock,
			Reason:        "order reservation",
			Actor:         actor,
			Occurred:      now,
		}); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve tx: %w", err)
	}

	return nil
}

// classifyReserveFailure различает отсутствующий товар и нехватку остатка.
func (r *productRepository) classifyReserveFailure(ctx context.Context, tx *sql.Tx, productID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	return domain.ErrInsufficientStock
}

func (r *productRepository) Release(productID string, qty int32, reason, actor string) error {
	return r.ledgerOp(productID, func(ctx context.Context, tx *sql.Tx, now time.Time) (domain.StockMovement, bool, error) {
		if qty <= 0 {
			return domain.StockMovement{}, false, domain.ErrQtyInvalid
		}

		var stock, reserved int32
		err := tx.QueryRowContext(ctx, `
			UPDATE products p
			SET reserved = GREATEST(p.reserved - $2, 0), updated_at = $3
			FROM (SELECT id, stock, reserved FROM products WHERE id = $1 FOR UPDATE) old
			WHERE p.id = old.id
			RETURNING old.stock, old.reserved
		`, productID, qty, now).Scan(&stock, &reserved)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockMovement{}, false, domain.ErrProductNotFound
		}
		if err != nil {
			return domain.StockMovement{}, false, fmt.Errorf("release stock: %w", err)
		}
		if reserved == 0 {
			return domain.StockMovement{}, false, nil
		}
		released := qty
		if reserved < released {
			released = reserved
		}

		return domain.StockMovement{
			Type:          domain.MovementReleased,
			Qty:           released,
			PreviousStock: stock,
			NewStock:      stock,
			Reason:        reason,
			Actor:         actor,
		}, true, nil
	})
}

func (r *productRepository) Commit(productID string, qty int32, reason, actor string) error {
	return r.ledgerOp(productID, func(ctx context.Context, tx *sql.Tx, now time.Time) (domain.StockMovement, bool, error) {
		if qty <= 0 {
			return domain.StockMovement{}, false, domain.ErrQtyInvalid
		}

		var stock int32
		err := tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - $2, reserved = reserved - $2, updated_at = $3
			WHERE id = $1 AND reserved >= $2 AND stock >= $2
			RETURNING stock
		`, productID, qty, now).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockMovement{}, false, r.classifyReserveFailure(ctx, tx, productID)
		}
		if err != nil {
			return domain.StockMovement{}, false, fmt.Errorf("commit stock: %w", err)
		}

		return domain.StockMovement{
			Type:          domain.MovementOut,
			Qty:           -qty,
			PreviousStock: stock + qty,
			NewStock:      stock,
			Reason:        reason,
			Actor:         actor,
		}, true, nil
	})
}

func (r *productRepository) AddStock(productID string, qty int32, reason, actor string) error {
	return r.ledgerOp(productID, func(ctx context.Context, tx *sql.Tx, now time.Time) (domain.StockMovement, bool, error) {
		if qty <= 0 {
			return domain.StockMovement{}, false, domain.ErrQtyInvalid
		}

		var stock int32
		err := tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock + $2, updated_at = $3
			WHERE id = $1
			RETURNING stock
		`, productID, qty, now).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockMovement{}, false, domain.ErrProductNotFound
		}
		if err != nil {
			return domain.StockMovement{}, false, fmt.Errorf("add stock: %w", err)
		}

		return domain.StockMovement{
			Type:          domain.MovementIn,
			Qty:           qty,
			PreviousStock: stock - qty,
			NewStock:      stock,
			Reason:        reason,
			Actor:         actor,
		}, true, nil
	})
}

func (r *productRepository) RemoveStock(productID string, qty int32, reason, actor string) error {
	return r.ledgerOp(productID, func(ctx context.Context, tx *sql.Tx, now time.Time) (domain.StockMovement, bool, error) {
		if qty <= 0 {
			return domain.StockMovement{}, false, domain.ErrQtyInvalid
		}

		var stock int32
		err := tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - $2, updated_at = $3
			WHERE id = $1 AND stock - reserved >= $2
			RETURNING stock
		`, productID, qty, now).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockMovement{}, false, r.classifyReserveFailure(ctx, tx, productID)
		}
		if err != nil {
			return domain.StockMovement{}, false, fmt.Errorf("remove stock: %w", err)
		}

		return domain.StockMovement{
			Type:          domain.MovementOut,
			Qty:           -qty,
			PreviousStock: stock + qty,
			NewStock:      stock,
			Reason:        reason,
			Actor:         actor,
		}, true, nil
	})
}

func (r *productRepository) Adjust(productID string, newTotal int32, reason, actor string) error {
	return r.ledgerOp(productID, func(ctx context.Context, tx *sql.Tx, now time.Time) (domain.StockMovement, bool, error) {
		if newTotal < 0 {
			return domain.StockMovement{}, false, domain.ErrQtyInvalid
		}

		var previous int32
		err := tx.QueryRowContext(ctx, `
			UPDATE products p
			SET stock = $2, updated_at = $3
			FROM (SELECT id, stock FROM products WHERE id = $1 FOR UPDATE) old
			WHERE p.id = old.id AND p.reserved <= $2
			RETURNING old.stock
		`, productID, newTotal, now).Scan(&previous)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockMovement{}, false, r.classifyReserveFailure(ctx, tx, productID)
		}
		if err != nil {
			return domain.StockMovement{}, false, fmt.Errorf("adjust stock: %w", err)
		}
		if previous == newTotal {
			return domain.StockMovement{}, false, nil
		}

		return domain.StockMovement{
			Type:          domain.MovementAdjustment,
			Qty:           newTotal - previous,
			PreviousStock: previous,
			NewStock:      newTotal,
			Reason:        reason,
			Actor:         actor,
		}, true, nil
	})
}

func (r *productRepository) Movements(productID string, limit int) ([]domain.StockMovement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, type, qty, previous_stock, new_stock, reason, actor, occurred
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY occurred DESC, id DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		var m domain.StockMovement
		var mtype string
		if err := rows.Scan(&m.ID, &m.ProductID, &mtype, &m.Qty, &m.PreviousStock, &m.NewStock, &m.Reason, &m.Actor, &m.Occurred); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = domain.MovementType(mtype)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}

	return movements, nil
}

// ledgerOp выполняет одну складскую операцию и запись движения одной транзакцией.
func (r *productRepository) ledgerOp(productID string, op func(context.Context, *sql.Tx, time.Time) (domain.StockMovement, bool, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	movement, record, opErr := op(ctx, tx, now)
	if opErr != nil {
		err = opErr
		return err
	}
	if record {
		movement.ID = uuid.NewString()
		movement.ProductID = productID
		movement.Occurred = now
		if err = insertMovement(ctx, tx, movement); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}

	return nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, m domain.StockMovement) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (
			id, product_id, type, qty, previous_stock, new_stock, reason, actor, occurred
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		m.ID, m.ProductID, string(m.Type), m.Qty, m.PreviousStock, m.NewStock,
		m.Reason, m.Actor, m.Occurred,
	); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.ProductRepository = (*productRepository)(nil)
var _ domain.StockLedger = (*productRepository)(nil)
