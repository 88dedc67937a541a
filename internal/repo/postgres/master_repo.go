package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timey-uz/timey-backend/internal/domain"
)

type MasterRepository interface {
	Create(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error)
	GetByID(ctx context.Context, id int64) (*domain.Master, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Master, error)
	FindOrCreateByPhone(ctx context.Context, phone string) (*domain.Master, error)
	List(ctx context.Context, serviceType string) ([]domain.Master, error)
	UpsertAvailability(ctx context.Context, masterID int64, date time.Time, slots []string, discountPercent int) (*domain.Availability, error)
	GetAvailability(ctx context.Context, masterID int64, date time.Time) (*domain.Availability, error)
}

type masterRepository struct {
	pool *pgxpool.Pool
}

func NewMasterRepository(pool *pgxpool.Pool) MasterRepository {
	return &masterRepository{pool: pool}
}

const masterCols = `m.id, m.full_name, m.phone, m.service_type, m.experience_years,
m.rating, m.about, m.avatar_url, m.status, m.created_at,
l.lat, l.lng, l.address, l.district, l.place_id, l.accuracy`

const masterFrom = ` FROM masters m LEFT JOIN master_locations l ON l.master_id = m.id`

func scanMaster(row pgx.Row) (*domain.Master, error) {
	var (
		m        domain.Master
		lat, lng *float64
		address  *string
		district *string
		placeID  *string
		accuracy *int
	)
	err := row.Scan(
		&m.ID, &m.FullName, &m.Phone, &m.ServiceType, &m.ExperienceYears,
		&m.Rating, &m.About, &m.AvatarURL, &m.Status, &m.CreatedAt,
		&lat, &lng, &address, &district, &placeID, &accuracy,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		m.Location = &domain.Location{Lat: *lat, Lng: *lng}
		if address != nil {
			m.Location.Address = *address
		}
		if district != nil {
			m.Location.District = *district
		}
		if placeID != nil {
			m.Location.PlaceID = *placeID
		}
		if accuracy != nil {
			m.Location.Accuracy = *accuracy
		}
	}
	return &m, nil
}

func (r *masterRepository) Create(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertMaster = `
		INSERT INTO masters (full_name, phone, service_type, experience_years, about, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, rating, created_at`

	m := &domain.Master{
		FullName:        req.FullName,
		Phone:           req.Phone,
		ServiceType:     req.ServiceType,
		ExperienceYears: req.ExperienceYears,
		About:           req.About,
		AvatarURL:       req.AvatarURL,
	}
	err = tx.QueryRow(ctx, insertMaster,
		req.FullName, req.Phone, req.ServiceType, req.ExperienceYears, req.About, req.AvatarURL,
	).Scan(&m.ID, &m.Status, &m.Rating, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	const insertLocation = `
		INSERT INTO master_locations (master_id, lat, lng, address, district, place_id, accuracy)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	loc := req.Location
	if _, err := tx.Exec(ctx, insertLocation,
		m.ID, loc.Lat, loc.Lng, loc.Address, loc.District, loc.PlaceID, loc.Accuracy,
	); err != nil {
		return nil, err
	}
	m.Location = &loc

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *masterRepository) GetByID(ctx context.Context, id int64) (*domain.Master, error) {
	const q = `SELECT ` + masterCols + masterFrom + ` WHERE m.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMaster(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *masterRepository) FindByPhone(ctx context.Context, phone string) (*domain.Master, error) {
	const q = `SELECT ` + masterCols + masterFrom + ` WHERE m.phone = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMaster(r.pool.QueryRow(ctx, q, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// FindOrCreateByPhone backs the OTP flow: a verified phone gets a default
// profile if none exists yet.
func (r *masterRepository) FindOrCreateByPhone(ctx context.Context, phone string) (*domain.Master, error) {
	existing, err := r.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	const q = `
		INSERT INTO masters (full_name, phone, service_type, experience_years)
		VALUES ('New Master', $1, 'unspecified', 0)
		ON CONFLICT (phone) DO NOTHING
		RETURNING id, full_name, phone, service_type, experience_years,
		          rating, about, avatar_url, status, created_at`

	ctx2, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var m domain.Master
	err = r.pool.QueryRow(ctx2, q, phone).Scan(
		&m.ID, &m.FullName, &m.Phone, &m.ServiceType, &m.ExperienceYears,
		&m.Rating, &m.About, &m.AvatarURL, &m.Status, &m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		// Lost the insert race: the row now exists, fetch it.
		return r.FindByPhone(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *masterRepository) List(ctx context.Context, serviceType string) ([]domain.Master, error) {
	q := `SELECT ` + masterCols + masterFrom + ` WHERE m.status = 'active'`
	args := []any{}
	if serviceType != "" {
		q += ` AND m.service_type = $1`
		args = append(args, serviceType)
	}
	q += ` ORDER BY m.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var masters []domain.Master
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		masters = append(masters, *m)
	}
	return masters, rows.Err()
}

func (r *masterRepository) UpsertAvailability(ctx context.Context, masterID int64, date time.Time, slots []string, discountPercent int) (*domain.Availability, error) {
	payload, err := json.Marshal(slots)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO master_availabilities (master_id, date, available_slots, discount_percent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (master_id, date) DO UPDATE SET
			available_slots = EXCLUDED.available_slots,
			discount_percent = EXCLUDED.discount_percent,
			updated_at = now()
		RETURNING id, master_id, date, available_slots, discount_percent, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAvailability(r.pool.QueryRow(ctx, q, masterID, date, payload, discountPercent))
}

func (r *masterRepository) GetAvailability(ctx context.Context, masterID int64, date time.Time) (*domain.Availability, error) {
	const q = `
		SELECT id, master_id, date, available_slots, discount_percent, created_at, updated_at
		FROM master_availabilities
		WHERE master_id = $1 AND date = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAvailability(r.pool.QueryRow(ctx, q, masterID, date))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func scanAvailability(row pgx.Row) (*domain.Availability, error) {
	var (
		a   domain.Availability
		raw []byte
	)
	err := row.Scan(&a.ID, &a.MasterID, &a.Date, &raw, &a.DiscountPercent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &a.Slots); err != nil {
		return nil, err
	}
	return &a, nil
}
