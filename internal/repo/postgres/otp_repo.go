package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timey-uz/timey-backend/internal/domain"
)

type OTPRepository interface {
	LatestUnused(ctx context.Context, phone string) (*domain.OTPChallenge, error)
	Create(ctx context.Context, ch *domain.OTPChallenge) (*domain.OTPChallenge, error)
	Consume(ctx context.Context, phone, code string, now time.Time) (*domain.OTPChallenge, error)
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type otpRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) OTPRepository {
	return &otpRepository{pool: pool}
}

const otpCols = `id, phone, code, is_used, expires_at, resend_at, created_at`

func scanChallenge(row pgx.Row) (*domain.OTPChallenge, error) {
	var ch domain.OTPChallenge
	err := row.Scan(&ch.ID, &ch.Phone, &ch.Code, &ch.IsUsed, &ch.ExpiresAt, &ch.ResendAt, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// LatestUnused returns the most recent unused challenge for the phone;
// most-recent-wins is the tie-break rule for rate limiting.
func (r *otpRepository) LatestUnused(ctx context.Context, phone string) (*domain.OTPChallenge, error) {
	const q = `
		SELECT ` + otpCols + ` FROM otp_challenges
		WHERE phone = $1 AND is_used = false
		ORDER BY id DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ch, err := scanChallenge(r.pool.QueryRow(ctx, q, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return ch, err
}

func (r *otpRepository) Create(ctx context.Context, ch *domain.OTPChallenge) (*domain.OTPChallenge, error) {
	const q = `
		INSERT INTO otp_challenges (phone, code, expires_at, resend_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + otpCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanChallenge(r.pool.QueryRow(ctx, q, ch.Phone, ch.Code, ch.ExpiresAt, ch.ResendAt))
}

// Consume finds the most recent unused challenge matching phone+code and
// marks it used, holding a row-level exclusive lock across the
// read-check-mark sequence so a code can never verify twice concurrently.
// An expired match is left unused and reported as ErrCodeExpired.
func (r *otpRepository) Consume(ctx context.Context, phone, code string, now time.Time) (*domain.OTPChallenge, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const selectQ = `
		SELECT ` + otpCols + ` FROM otp_challenges
		WHERE phone = $1 AND code = $2 AND is_used = false
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE`

	ch, err := scanChallenge(tx.QueryRow(ctx, selectQ, phone, code))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrCodeInvalid
	}
	if err != nil {
		return nil, err
	}

	if !now.Before(ch.ExpiresAt) {
		return nil, domain.ErrCodeExpired
	}

	const markQ = `UPDATE otp_challenges SET is_used = true WHERE id = $1`
	if _, err := tx.Exec(ctx, markQ, ch.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	ch.IsUsed = true
	return ch, nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	const q = `DELETE FROM otp_challenges WHERE expires_at < now() - $1::interval`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
