package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timey-uz/timey-backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, reason *string, from []domain.BookingStatus) (*domain.Booking, error)
	Confirm(ctx context.Context, id int64) (*domain.Booking, error)
	CancelExpired(ctx context.Context, now time.Time) (int64, error)
	ActiveSlotTimes(ctx context.Context, masterID int64, date time.Time) ([]string, error)
	ListByMaster(ctx context.Context, masterID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, client_id, master_id, service_type, date, slot_time,
payment_type, status, expires_at, reject_reason, client_confirmed, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.ClientID, &b.MasterID, &b.ServiceType, &b.Date, &b.SlotTime,
		&b.PaymentType, &b.Status, &b.ExpiresAt, &b.RejectReason, &b.ClientConfirmed,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create runs the conflict check and the insert as one atomic unit. The row
// lock on the active booking serializes concurrent creates for the same slot;
// the partial unique index turns any remaining race into a unique violation,
// so two racing calls yield exactly one success and one ErrSlotConflict.
func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const checkQ = `
		SELECT id FROM bookings
		WHERE master_id = $1 AND date = $2 AND slot_time = $3
		  AND status IN ('pending', 'accepted', 'confirmed')
		FOR UPDATE`

	var existing int64
	err = tx.QueryRow(ctx, checkQ, b.MasterID, b.Date, b.SlotTime).Scan(&existing)
	if err == nil {
		return nil, domain.ErrSlotConflict
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	const insertQ = `
		INSERT INTO bookings (client_id, master_id, service_type, date, slot_time,
			payment_type, status, expires_at, client_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, false)
		RETURNING ` + bookingCols

	created, err := scanBooking(tx.QueryRow(ctx, insertQ,
		b.ClientID, b.MasterID, b.ServiceType, b.Date, b.SlotTime,
		b.PaymentType, b.ExpiresAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrSlotConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// UpdateStatus transitions a booking only while its current status is in
// from; the guard in WHERE makes the read-check-write race-free the same way
// CancelExpired is. Zero matched rows returns (nil, nil) so callers can tell
// a lost race from a repository failure.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, reason *string, from []domain.BookingStatus) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status = $2,
		    reject_reason = COALESCE($3, reject_reason),
		    updated_at = now()
		WHERE id = $1 AND status = ANY($4)
		RETURNING ` + bookingCols

	fromStatuses := make([]string, len(from))
	for i, st := range from {
		fromStatuses[i] = string(st)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, status, reason, fromStatuses))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// Confirm only moves a still-active booking; a row that went terminal in the
// meantime is not matched and (nil, nil) is returned.
func (r *bookingRepository) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status = 'confirmed', client_confirmed = true, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'accepted', 'confirmed')
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// CancelExpired sweeps overdue pending bookings. The status guard in WHERE
// makes it safe to run repeatedly and concurrently: a booking already moved
// by another path is simply not matched.
func (r *bookingRepository) CancelExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE bookings
		SET status = 'cancelled', updated_at = now()
		WHERE status = 'pending' AND expires_at < $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *bookingRepository) ActiveSlotTimes(ctx context.Context, masterID int64, date time.Time) ([]string, error) {
	const q = `
		SELECT slot_time FROM bookings
		WHERE master_id = $1 AND date = $2
		  AND status IN ('pending', 'accepted', 'confirmed')`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, masterID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *bookingRepository) ListByMaster(ctx context.Context, masterID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return r.list(ctx, `master_id`, masterID, limit, offset, status)
}

func (r *bookingRepository) ListByClient(ctx context.Context, clientID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return r.list(ctx, `client_id`, clientID, limit, offset, status)
}

func (r *bookingRepository) list(ctx context.Context, col string, id int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE ` + col + ` = $1`
	args := []any{id}
	if status != nil {
		q += ` AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.ClientID, &b.MasterID, &b.ServiceType, &b.Date, &b.SlotTime,
			&b.PaymentType, &b.Status, &b.ExpiresAt, &b.RejectReason, &b.ClientConfirmed,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
