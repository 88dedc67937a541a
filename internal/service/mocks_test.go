package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/platform/sms"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, reason *string, from []domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status, reason, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CancelExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) ActiveSlotTimes(ctx context.Context, masterID int64, date time.Time) ([]string, error) {
	args := m.Called(ctx, masterID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) ListByMaster(ctx context.Context, masterID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, masterID, limit, offset, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByClient(ctx context.Context, clientID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, clientID, limit, offset, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockMasterRepository struct {
	mock.Mock
}

func (m *MockMasterRepository) Create(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepository) GetByID(ctx context.Context, id int64) (*domain.Master, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepository) FindByPhone(ctx context.Context, phone string) (*domain.Master, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepository) FindOrCreateByPhone(ctx context.Context, phone string) (*domain.Master, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Master), args.Error(1)
}

func (m *MockMasterRepository) List(ctx context.Context, serviceType string) ([]domain.Master, error) {
	args := m.Called(ctx, serviceType)
	return args.Get(0).([]domain.Master), args.Error(1)
}

func (m *MockMasterRepository) UpsertAvailability(ctx context.Context, masterID int64, date time.Time, slots []string, discountPercent int) (*domain.Availability, error) {
	args := m.Called(ctx, masterID, date, slots, discountPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockMasterRepository) GetAvailability(ctx context.Context, masterID int64, date time.Time) (*domain.Availability, error) {
	args := m.Called(ctx, masterID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) LatestUnused(ctx context.Context, phone string) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OTPChallenge), args.Error(1)
}

func (m *MockOTPRepository) Create(ctx context.Context, ch *domain.OTPChallenge) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OTPChallenge), args.Error(1)
}

func (m *MockOTPRepository) Consume(ctx context.Context, phone, code string, now time.Time) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, phone, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OTPChallenge), args.Error(1)
}

func (m *MockOTPRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type MockGuestRepository struct {
	mock.Mock
}

func (m *MockGuestRepository) FindOrCreateByDeviceID(ctx context.Context, deviceID string) (*domain.GuestProfile, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GuestProfile), args.Error(1)
}

type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, masterID int64, date time.Time) (*domain.TodayAvailability, error) {
	args := m.Called(ctx, masterID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TodayAvailability), args.Error(1)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, masterID int64, date time.Time, avail *domain.TodayAvailability) error {
	args := m.Called(ctx, masterID, date, avail)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, masterID int64, date time.Time) error {
	args := m.Called(ctx, masterID, date)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, phone, text string) sms.Result {
	args := m.Called(ctx, phone, text)
	return args.Get(0).(sms.Result)
}

// fixedClock pins Now to a single instant for deterministic tests.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
