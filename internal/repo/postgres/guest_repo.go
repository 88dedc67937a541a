package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timey-uz/timey-backend/internal/domain"
)

type GuestRepository interface {
	FindOrCreateByDeviceID(ctx context.Context, deviceID string) (*domain.GuestProfile, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

func (r *guestRepository) FindOrCreateByDeviceID(ctx context.Context, deviceID string) (*domain.GuestProfile, error) {
	// The no-op DO UPDATE makes RETURNING yield the row in both the insert
	// and the already-exists case.
	const q = `
		INSERT INTO guest_profiles (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO UPDATE SET device_id = EXCLUDED.device_id
		RETURNING id, device_id, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var g domain.GuestProfile
	err := r.pool.QueryRow(ctx, q, deviceID).Scan(&g.ID, &g.DeviceID, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
