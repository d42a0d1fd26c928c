package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// reviewRepository хранит отзывы в PostgreSQL. Дубликаты отсекаются
// частичными уникальными индексами: (product_id, user_id) для отзывов
// о товаре и order_id для отзывов о доставке.
type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository создаёт PostgreSQL-реализацию ReviewRepository.
func NewReviewRepository(store *Store) *reviewRepository {
	return &reviewRepository{db: store.DB()}
}

const reviewColumns = `
	id, kind, user_id, product_id, order_id, partner_id, rating, title, comment,
	verified_purchase, is_approved, helpful_count, created_at, updated_at
`

func scanReview(row interface{ Scan(...any) error }) (domain.Review, error) {
	var (
		r         domain.Review
		kind      string
		productID sql.NullString
		orderID   sql.NullString
		partnerID sql.NullString
	)
	err := row.Scan(
		&r.ID, &kind, &r.UserID, &productID, &orderID, &partnerID,
		&r.Rating, &r.Title, &r.Comment,
		&r.VerifiedPurchase, &r.IsApproved, &r.HelpfulCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}

	r.Kind = domain.ReviewKind(kind)
	r.ProductID = productID.String
	r.OrderID = orderID.String
	r.PartnerID = partnerID.String

	return r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *reviewRepository) Create(review domain.Review) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (
			id, kind, user_id, product_id, order_id, partner_id, rating, title, comment,
			verified_purchase, is_approved, helpful_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		review.ID, string(review.Kind), review.UserID,
		nullString(review.ProductID), nullString(review.OrderID), nullString(review.PartnerID),
		review.Rating, review.Title, review.Comment,
		review.VerifiedPurchase, review.IsApproved, review.HelpfulCount,
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

func (r *reviewRepository) Get(id string) (domain.Review, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	review, err := scanReview(r.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, domain.ErrReviewNotFound
		}
		return domain.Review{}, fmt.Errorf("select review: %w", err)
	}

	return review, nil
}

func (r *reviewRepository) Save(review domain.Review) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $2,
		    title = $3,
		    comment = $4,
		    is_approved = $5,
		    helpful_count = $6,
		    updated_at = $7
		WHERE id = $1
	`,
		review.ID, review.Rating, review.Title, review.Comment,
		review.IsApproved, review.HelpfulCount, review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return requireAffected(res, domain.ErrReviewNotFound)
}

func (r *reviewRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return requireAffected(res, domain.ErrReviewNotFound)
}

// ListByProduct возвращает одобренные отзывы о товаре, новые первыми.
func (r *reviewRepository) ListByProduct(productID string, page, limit int) ([]domain.Review, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reviews WHERE kind = 'product' AND product_id = $1 AND is_approved
	`, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	if limit <= 0 {
		limit = total
	}
	if page <= 0 {
		page = 1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE kind = 'product' AND product_id = $1 AND is_approved
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, total, nil
}

func (r *reviewRepository) ApprovedRatings(kind domain.ReviewKind, targetID string) ([]int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	target := "product_id"
	if kind == domain.ReviewKindDelivery {
		target = "partner_id"
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rating FROM reviews WHERE kind = $1 AND %s = $2 AND is_approved
	`, target), string(kind), targetID)
	if err != nil {
		return nil, fmt.Errorf("select approved ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]int32, 0)
	for rows.Next() {
		var rating int32
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	return ratings, nil
}

var _ domain.ReviewRepository = (*reviewRepository)(nil)
