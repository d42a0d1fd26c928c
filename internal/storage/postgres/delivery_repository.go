package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// deliveryRepository хранит доставки в PostgreSQL. Уникальный индекс по
// order_id гарантирует не больше одной доставки на заказ, конкурентные
// обновления разрешаются оптимистической блокировкой по version.
type deliveryRepository struct {
	db *sql.DB
}

// NewDeliveryRepository создаёт PostgreSQL-реализацию DeliveryRepository.
func NewDeliveryRepository(store *Store) *deliveryRepository {
	return &deliveryRepository{db: store.DB()}
}

const deliveryColumns = `
	id, order_id, partner_id, status, estimated_date, actual_delivery_date,
	pickup_address, delivery_address, customer_signature, proof_of_delivery,
	failure_reason, attempts, version, created_at, updated_at
`

func scanDelivery(row interface{ Scan(...any) error }) (domain.Delivery, error) {
	var (
		d             domain.Delivery
		status        string
		estimatedDate sql.NullTime
		actualDate    sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.OrderID, &d.PartnerID, &status, &estimatedDate, &actualDate,
		&d.PickupAddress, &d.DeliveryAddress, &d.CustomerSignature, &d.ProofOfDelivery,
		&d.FailureReason, &d.Attempts, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Delivery{}, err
	}

	d.Status = domain.DeliveryStatus(status)
	if estimatedDate.Valid {
		d.EstimatedDate = estimatedDate.Time
	}
	if actualDate.Valid {
		d.ActualDeliveryDate = actualDate.Time
	}

	return d, nil
}

func (r *deliveryRepository) Create(delivery domain.Delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delivery tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO deliveries (
			id, order_id, partner_id, status, estimated_date, actual_delivery_date,
			pickup_address, delivery_address, customer_signature, proof_of_delivery,
			failure_reason, attempts, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		delivery.ID, delivery.OrderID, delivery.PartnerID, string(delivery.Status),
		nullTime(delivery.EstimatedDate), nullTime(delivery.ActualDeliveryDate),
		delivery.PickupAddress, delivery.DeliveryAddress, delivery.CustomerSignature,
		delivery.ProofOfDelivery, delivery.FailureReason, delivery.Attempts,
		delivery.Version, delivery.CreatedAt, delivery.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrVersionConflict
			return err
		}
		err = fmt.Errorf("insert delivery: %w", err)
		return err
	}

	if err = insertDeliveryHistory(ctx, tx, delivery.ID, delivery.StatusHistory); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delivery tx: %w", err)
	}

	return nil
}

func (r *deliveryRepository) Get(id string) (domain.Delivery, error) {
	return r.getBy(`WHERE id = $1`, id)
}

func (r *deliveryRepository) GetByOrder(orderID string) (domain.Delivery, error) {
	return r.getBy(`WHERE order_id = $1`, orderID)
}

func (r *deliveryRepository) getBy(where, arg string) (domain.Delivery, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	delivery, err := scanDelivery(r.db.QueryRowContext(ctx, `
		SELECT `+deliveryColumns+` FROM deliveries `+where,
		arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Delivery{}, domain.ErrDeliveryNotFound
		}
		return domain.Delivery{}, fmt.Errorf("select delivery: %w", err)
	}

	if err := r.loadHistory(ctx, &delivery); err != nil {
		return domain.Delivery{}, err
	}

	return delivery, nil
}

func (r *deliveryRepository) loadHistory(ctx context.Context, delivery *domain.Delivery) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, note, location, actor, occurred
		FROM delivery_status_history
		WHERE delivery_id = $1
		ORDER BY occurred, id
	`, delivery.ID)
	if err != nil {
		return fmt.Errorf("select delivery history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.DeliveryHistoryEntry
		var status string
		if err := rows.Scan(&status, &entry.Note, &entry.Location, &entry.Actor, &entry.Occurred); err != nil {
			return fmt.Errorf("scan delivery history: %w", err)
		}
		entry.Status = domain.DeliveryStatus(status)
		delivery.StatusHistory = append(delivery.StatusHistory, entry)
	}
	return rows.Err()
}

func (r *deliveryRepository) ListByPartner(partnerID string, page, limit int) ([]domain.Delivery, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM deliveries WHERE partner_id = $1
	`, partnerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deliveries: %w", err)
	}

	if limit <= 0 {
		limit = total
	}
	if page <= 0 {
		page = 1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE partner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, partnerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]domain.Delivery, 0)
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan delivery row: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate delivery rows: %w", err)
	}

	return deliveries, total, nil
}

// Save обновляет изменяемые поля доставки и переписывает журнал статусов.
func (r *deliveryRepository) Save(delivery domain.Delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delivery tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE deliveries
		SET status = $3,
		    estimated_date = $4,
		    actual_delivery_date = $5,
		    customer_signature = $6,
		    proof_of_delivery = $7,
		    failure_reason = $8,
		    attempts = $9,
		    version = version + 1,
		    updated_at = $10
		WHERE id = $1 AND version = $2
	`,
		delivery.ID, delivery.Version,
		string(delivery.Status),
		nullTime(delivery.EstimatedDate), nullTime(delivery.ActualDeliveryDate),
		delivery.CustomerSignature, delivery.ProofOfDelivery, delivery.FailureReason,
		delivery.Attempts, delivery.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("update delivery: %w", err)
		return err
	}

	var affected int64
	affected, err = res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("rows affected: %w", err)
		return err
	}
	if affected == 0 {
		err = r.classifySaveFailure(ctx, tx, delivery.ID)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM delivery_status_history WHERE delivery_id = $1`, delivery.ID); err != nil {
		err = fmt.Errorf("clear delivery history: %w", err)
		return err
	}
	if err = insertDeliveryHistory(ctx, tx, delivery.ID, delivery.StatusHistory); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delivery tx: %w", err)
	}

	return nil
}

func (r *deliveryRepository) classifySaveFailure(ctx context.Context, tx *sql.Tx, deliveryID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM deliveries WHERE id = $1`, deliveryID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrDeliveryNotFound
	}
	if err != nil {
		return fmt.Errorf("check delivery exists: %w", err)
	}
	return domain.ErrVersionConflict
}

func insertDeliveryHistory(ctx context.Context, tx *sql.Tx, deliveryID string, history []domain.DeliveryHistoryEntry) error {
	for _, entry := range history {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_status_history (delivery_id, status, note, location, actor, occurred)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, deliveryID, string(entry.Status), entry.Note, entry.Location, entry.Actor, entry.Occurred); err != nil {
			return fmt.Errorf("insert delivery history: %w", err)
		}
	}
	return nil
}

// partnerRepository хранит профили курьеров.
type partnerRepository struct {
	db *sql.DB
}

// NewPartnerRepository создаёт PostgreSQL-реализацию PartnerRepository.
func NewPartnerRepository(store *Store) *partnerRepository {
	return &partnerRepository{db: store.DB()}
}

// Ensure создаёт профиль курьера, если его ещё нет; существующий не трогает.
func (r *partnerRepository) Ensure(profile domain.PartnerProfile) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partner_profiles (partner_id, display_name, rating_avg, rating_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (partner_id) DO NOTHING
	`, profile.PartnerID, profile.DisplayName, profile.RatingAvg, profile.RatingCount, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ensure partner profile: %w", err)
	}

	return nil
}

func (r *partnerRepository) Get(partnerID string) (domain.PartnerProfile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var p domain.PartnerProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT partner_id, display_name, rating_avg, rating_count, created_at, updated_at
		FROM partner_profiles
		WHERE partner_id = $1
	`, partnerID).Scan(&p.PartnerID, &p.DisplayName, &p.RatingAvg, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PartnerProfile{}, domain.ErrPartnerNotAssigned
	}
	if err != nil {
		return domain.PartnerProfile{}, fmt.Errorf("select partner profile: %w", err)
	}

	return p, nil
}

func (r *partnerRepository) UpdateRating(partnerID string, summary domain.RatingSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE partner_profiles
		SET rating_avg = $2, rating_count = $3, updated_at = $4
		WHERE partner_id = $1
	`, partnerID, summary.Average, summary.Count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update partner rating: %w", err)
	}
	return requireAffected(res, domain.ErrPartnerNotAssigned)
}

var _ domain.DeliveryRepository = (*deliveryRepository)(nil)
var _ domain.PartnerRepository = (*partnerRepository)(nil)
