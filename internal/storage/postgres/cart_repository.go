package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// cartRepository хранит корзины в PostgreSQL: одна строка carts на пользователя
// плюс строки cart_items. Save полностью перезаписывает состав корзины.
type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) *cartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) GetByUser(userID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, qty, price_minor, added_at
		FROM cart_items
		WHERE cart_user_id = $1
		ORDER BY added_at, product_id
	`, cart.UserID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Qty, &item.PriceMinor, &item.AddedAt); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart items: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cart tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (user_id, id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`, cart.UserID, cart.ID, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		err = fmt.Errorf("upsert cart: %w", err)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_user_id = $1`, cart.UserID); err != nil {
		err = fmt.Errorf("clear cart items: %w", err)
		return err
	}

	for _, item := range cart.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_user_id, product_id, qty, price_minor, added_at)
			VALUES ($1, $2, $3, $4, $5)
		`, cart.UserID, item.ProductID, item.Qty, item.PriceMinor, item.AddedAt); err != nil {
			err = fmt.Errorf("insert cart item: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit cart tx: %w", err)
	}

	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
