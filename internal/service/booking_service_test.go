package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/pkg/config"
	"github.com/timey-uz/timey-backend/pkg/events"
)

var testLoc = time.FixedZone("UZT", 5*3600)

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		TimeZone:      "Asia/Tashkent",
		GraceWindow:   15 * time.Minute,
		ConfirmWindow: 30 * time.Minute,
	}
}

func newBookingServiceForTest(now time.Time) (BookingService, *MockBookingRepository, *MockMasterRepository, *MockAvailabilityCache, *MockPublisher) {
	bookingRepo := &MockBookingRepository{}
	masterRepo := &MockMasterRepository{}
	availCache := &MockAvailabilityCache{}
	eventBus := &MockPublisher{}
	svc := NewBookingService(bookingRepo, masterRepo, availCache, eventBus, fixedClock{now: now}, testBookingConfig())
	return svc, bookingRepo, masterRepo, availCache, eventBus
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, masterRepo, availCache, eventBus := newBookingServiceForTest(now)

	bookingRepo.On("CancelExpired", mock.Anything, now).Return(int64(0), nil)
	masterRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Master{ID: 7, Status: domain.MasterActive}, nil)

	wantExpiry := time.Date(2025, 6, 10, 15, 15, 0, 0, testLoc)
	bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.BookingPending &&
			b.SlotTime == "15:00" &&
			b.ExpiresAt.Equal(wantExpiry)
	})).Return(&domain.Booking{
		ID: 1, ClientID: 3, MasterID: 7, SlotTime: "15:00",
		Date:   time.Date(2025, 6, 10, 0, 0, 0, 0, testLoc),
		Status: domain.BookingPending, ExpiresAt: wantExpiry,
	}, nil)
	availCache.On("Invalidate", mock.Anything, int64(7), mock.Anything).Return(nil)
	eventBus.On("Publish", mock.Anything, events.BookingCreated, mock.Anything).Return(nil)

	booking, err := svc.CreateBooking(context.Background(), &domain.CreateBookingRequest{
		ClientID:    3,
		MasterID:    7,
		ServiceType: "barber",
		Date:        "2025-06-10",
		Time:        "15:00",
		PaymentType: domain.PaymentCash,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingPending, booking.Status)
	assert.True(t, booking.ExpiresAt.Equal(wantExpiry))
	bookingRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PastTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("CancelExpired", mock.Anything, now).Return(int64(0), nil)

	_, err := svc.CreateBooking(context.Background(), &domain.CreateBookingRequest{
		ClientID:    3,
		MasterID:    7,
		ServiceType: "barber",
		Date:        "2025-06-10",
		Time:        "11:00",
		PaymentType: domain.PaymentCard,
	})

	assert.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_SlotConflict(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, masterRepo, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("CancelExpired", mock.Anything, now).Return(int64(0), nil)
	masterRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Master{ID: 7}, nil)
	bookingRepo.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrSlotConflict)

	_, err := svc.CreateBooking(context.Background(), &domain.CreateBookingRequest{
		ClientID:    3,
		MasterID:    7,
		ServiceType: "barber",
		Date:        "2025-06-10",
		Time:        "15:00",
		PaymentType: domain.PaymentCash,
	})

	assert.ErrorIs(t, err, domain.ErrSlotConflict)
}

func TestBookingService_CreateBooking_SweepsExpiredFirst(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, masterRepo, availCache, eventBus := newBookingServiceForTest(now)

	bookingRepo.On("CancelExpired", mock.Anything, now).Return(int64(2), nil)
	eventBus.On("Publish", mock.Anything, events.BookingExpired, mock.Anything).Return(nil)
	masterRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Master{ID: 7}, nil)
	bookingRepo.On("Create", mock.Anything, mock.Anything).Return(&domain.Booking{ID: 2, MasterID: 7}, nil)
	availCache.On("Invalidate", mock.Anything, int64(7), mock.Anything).Return(nil)
	eventBus.On("Publish", mock.Anything, events.BookingCreated, mock.Anything).Return(nil)

	_, err := svc.CreateBooking(context.Background(), &domain.CreateBookingRequest{
		ClientID:    3,
		MasterID:    7,
		ServiceType: "barber",
		Date:        "2025-06-10",
		Time:        "15:00",
		PaymentType: domain.PaymentCash,
	})

	assert.NoError(t, err)
	bookingRepo.AssertCalled(t, "CancelExpired", mock.Anything, now)
	eventBus.AssertCalled(t, "Publish", mock.Anything, events.BookingExpired, mock.Anything)
}

func TestBookingService_MasterAction_RejectRequiresReason(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	_, err := svc.MasterAction(context.Background(), 1, domain.BookingRejected, "   ")

	assert.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_MasterAction_AcceptDropsReason(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, availCache, eventBus := newBookingServiceForTest(now)

	pending := &domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingPending}
	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(pending, nil)
	bookingRepo.On("UpdateStatus", mock.Anything, int64(1), domain.BookingAccepted, (*string)(nil),
		[]domain.BookingStatus{domain.BookingPending}).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingAccepted}, nil)
	availCache.On("Invalidate", mock.Anything, int64(7), mock.Anything).Return(nil)
	eventBus.On("Publish", mock.Anything, events.BookingAccepted, mock.Anything).Return(nil)

	booking, err := svc.MasterAction(context.Background(), 1, domain.BookingAccepted, "ignored text")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingAccepted, booking.Status)
	assert.Nil(t, booking.RejectReason)
	bookingRepo.AssertExpectations(t)
}

func TestBookingService_MasterAction_RejectStoresReason(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, availCache, eventBus := newBookingServiceForTest(now)

	reason := "fully booked"
	pending := &domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingPending}
	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(pending, nil)
	bookingRepo.On("UpdateStatus", mock.Anything, int64(1), domain.BookingRejected, &reason,
		[]domain.BookingStatus{domain.BookingPending}).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingRejected, RejectReason: &reason}, nil)
	availCache.On("Invalidate", mock.Anything, int64(7), mock.Anything).Return(nil)
	eventBus.On("Publish", mock.Anything, events.BookingRejected, mock.Anything).Return(nil)

	booking, err := svc.MasterAction(context.Background(), 1, domain.BookingRejected, reason)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingRejected, booking.Status)
	assert.Equal(t, &reason, booking.RejectReason)
}

func TestBookingService_MasterAction_NotPending(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingCancelled}, nil)

	_, err := svc.MasterAction(context.Background(), 1, domain.BookingAccepted, "")

	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_MasterAction_ConcurrentlyCancelled(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	// The read sees pending, but the expiry sweep cancels the row before the
	// guarded update runs; zero matched rows must not revive the booking.
	bookingRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingPending}, nil)
	bookingRepo.On("UpdateStatus", mock.Anything, int64(1), domain.BookingAccepted, (*string)(nil),
		[]domain.BookingStatus{domain.BookingPending}).
		Return(nil, nil)

	booking, err := svc.MasterAction(context.Background(), 1, domain.BookingAccepted, "")

	assert.Nil(t, booking)
	assert.True(t, domain.IsValidation(err))
}

func TestBookingService_CompleteBooking_ConcurrentlyMoved(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingAccepted}, nil)
	bookingRepo.On("UpdateStatus", mock.Anything, int64(1), domain.BookingCompleted, (*string)(nil),
		[]domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed}).
		Return(nil, nil)

	booking, err := svc.CompleteBooking(context.Background(), 1)

	assert.Nil(t, booking)
	assert.True(t, domain.IsValidation(err))
}

func TestBookingService_ClientConfirm_ConcurrentlyTerminal(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(confirmFixture("12:10"), nil)
	bookingRepo.On("Confirm", mock.Anything, int64(1)).Return(nil, nil)

	booking, err := svc.ClientConfirm(context.Background(), 1, true)

	assert.Nil(t, booking)
	assert.True(t, domain.IsValidation(err))
}

func TestBookingService_MasterAction_InvalidStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, _, _, _, _ := newBookingServiceForTest(now)

	_, err := svc.MasterAction(context.Background(), 1, domain.BookingCompleted, "")

	assert.True(t, domain.IsValidation(err))
}

func confirmFixture(slot string) *domain.Booking {
	return &domain.Booking{
		ID:       1,
		MasterID: 7,
		Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, testLoc),
		SlotTime: slot,
		Status:   domain.BookingAccepted,
	}
}

func TestBookingService_ClientConfirm_TooEarly(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	// 40 minutes before the appointment with a 30 minute window.
	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(confirmFixture("12:40"), nil)

	_, err := svc.ClientConfirm(context.Background(), 1, true)

	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestBookingService_ClientConfirm_WithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, eventBus := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(confirmFixture("12:10"), nil)
	bookingRepo.On("Confirm", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingConfirmed, ClientConfirmed: true}, nil)
	eventBus.On("Publish", mock.Anything, events.BookingConfirmed, mock.Anything).Return(nil)

	booking, err := svc.ClientConfirm(context.Background(), 1, true)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, booking.Status)
	assert.True(t, booking.ClientConfirmed)
	bookingRepo.AssertExpectations(t)
}

func TestBookingService_ClientConfirm_AlreadyPassed(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(confirmFixture("11:30"), nil)

	_, err := svc.ClientConfirm(context.Background(), 1, true)

	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestBookingService_ClientConfirm_DeclinedLeavesBooking(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	fixture := confirmFixture("12:10")
	bookingRepo.On("GetByID", mock.Anything, int64(1)).Return(fixture, nil)

	booking, err := svc.ClientConfirm(context.Background(), 1, false)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingAccepted, booking.Status)
	bookingRepo.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestBookingService_CompleteBooking_RequiresAcceptedOrConfirmed(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingPending}, nil)

	_, err := svc.CompleteBooking(context.Background(), 1)

	assert.True(t, domain.IsValidation(err))
	bookingRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CompleteBooking_Success(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, availCache, eventBus := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingConfirmed}, nil)
	bookingRepo.On("UpdateStatus", mock.Anything, int64(1), domain.BookingCompleted, (*string)(nil),
		[]domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed}).
		Return(&domain.Booking{ID: 1, MasterID: 7, Status: domain.BookingCompleted}, nil)
	availCache.On("Invalidate", mock.Anything, int64(7), mock.Anything).Return(nil)
	eventBus.On("Publish", mock.Anything, events.BookingCompleted, mock.Anything).Return(nil)

	booking, err := svc.CompleteBooking(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, booking.Status)
}

func TestBookingService_GetBooking_NotFound(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, testLoc)
	svc, bookingRepo, _, _, _ := newBookingServiceForTest(now)

	bookingRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := svc.GetBooking(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
