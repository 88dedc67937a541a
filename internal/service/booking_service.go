package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/timey-uz/timey-backend/internal/cache"
	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/pkg/config"
	"github.com/timey-uz/timey-backend/pkg/events"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error)
	MasterAction(ctx context.Context, id int64, status domain.BookingStatus, reason string) (*domain.Booking, error)
	ClientConfirm(ctx context.Context, id int64, confirmed bool) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListByMaster(ctx context.Context, masterID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo postgres.BookingRepository
	masterRepo  postgres.MasterRepository
	availCache  cache.AvailabilityCache
	eventBus    events.Publisher
	clock       Clock
	cfg         config.BookingConfig
}

func NewBookingService(
	bookingRepo postgres.BookingRepository,
	masterRepo postgres.MasterRepository,
	availCache cache.AvailabilityCache,
	eventBus events.Publisher,
	clock Clock,
	cfg config.BookingConfig,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		masterRepo:  masterRepo,
		availCache:  availCache,
		eventBus:    eventBus,
		clock:       clock,
		cfg:         cfg,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	now := s.clock.Now()

	// Expired pending holds are cancelled before the conflict check so a
	// stale hold never blocks a legitimate new request.
	swept, err := s.bookingRepo.CancelExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired bookings: %w", err)
	}
	if swept > 0 {
		logger.InfoContext(ctx, "Cancelled expired pending bookings", "count", swept)
		if err := s.eventBus.Publish(ctx, events.BookingExpired, events.BookingExpiredEvent{
			Count:   swept,
			SweptAt: now,
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish expiry event", "error", err)
		}
	}

	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	slot, err := domain.ParseSlotTime(req.Time)
	if err != nil {
		return nil, domain.Validationf("%s", err.Error())
	}
	date, err := domain.ParseDate(req.Date, now.Location())
	if err != nil {
		return nil, domain.Validationf("%s", err.Error())
	}

	startsAt := domain.CombineDateTime(date, slot, now.Location())
	if !startsAt.After(now) {
		return nil, domain.Validationf("booking time cannot be in the past")
	}

	master, err := s.masterRepo.GetByID(ctx, req.MasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load master: %w", err)
	}
	if master == nil {
		return nil, domain.ErrNotFound
	}

	booking := &domain.Booking{
		ClientID:    req.ClientID,
		MasterID:    req.MasterID,
		ServiceType: req.ServiceType,
		Date:        date,
		SlotTime:    slot,
		PaymentType: req.PaymentType,
		Status:      domain.BookingPending,
		ExpiresAt:   startsAt.Add(s.cfg.GraceWindow),
	}

	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		return nil, err
	}

	if err := s.availCache.Invalidate(ctx, created.MasterID, created.Date); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate availability cache", "error", err, "master_id", created.MasterID)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:   created.ID,
		ClientID:    created.ClientID,
		MasterID:    created.MasterID,
		ServiceType: created.ServiceType,
		Date:        domain.FormatDate(created.Date),
		Time:        created.SlotTime,
		ExpiresAt:   created.ExpiresAt,
		CreatedAt:   created.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", created.ID)
	}

	return created, nil
}

func (s *bookingService) validateCreate(req *domain.CreateBookingRequest) error {
	if req.ClientID <= 0 {
		return domain.Validationf("user_id is required")
	}
	if req.MasterID <= 0 {
		return domain.Validationf("master_id is required")
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return domain.Validationf("service_type is required")
	}
	if _, ok := domain.ParsePaymentType(string(req.PaymentType)); !ok {
		return domain.Validationf("payment_type must be cash or card")
	}
	return nil
}

func (s *bookingService) MasterAction(ctx context.Context, id int64, status domain.BookingStatus, reason string) (*domain.Booking, error) {
	if status != domain.BookingAccepted && status != domain.BookingRejected {
		return nil, domain.Validationf("status must be accepted or rejected")
	}
	reason = strings.TrimSpace(reason)
	if status == domain.BookingRejected && reason == "" {
		return nil, domain.Validationf("a reason is required when rejecting a booking")
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}
	if booking.Status != domain.BookingPending {
		return nil, domain.Validationf("only pending bookings can be accepted or rejected")
	}

	var reasonPtr *string
	if status == domain.BookingRejected {
		reasonPtr = &reason
	}

	// The pending guard repeats inside the UPDATE: the expiry sweep or a
	// concurrent action may have moved the row since the read above.
	updated, err := s.bookingRepo.UpdateStatus(ctx, id, status, reasonPtr,
		[]domain.BookingStatus{domain.BookingPending})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if updated == nil {
		return nil, domain.Validationf("only pending bookings can be accepted or rejected")
	}

	if err := s.availCache.Invalidate(ctx, updated.MasterID, updated.Date); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate availability cache", "error", err, "master_id", updated.MasterID)
	}

	subject := events.BookingAccepted
	if status == domain.BookingRejected {
		subject = events.BookingRejected
	}
	if err := s.eventBus.Publish(ctx, subject, events.BookingStatusEvent{
		BookingID: updated.ID,
		MasterID:  updated.MasterID,
		Status:    string(updated.Status),
		Reason:    reason,
		ChangedAt: s.clock.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking status event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) ClientConfirm(ctx context.Context, id int64, confirmed bool) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}

	now := s.clock.Now()
	startsAt := booking.StartsAt(now.Location())
	untilStart := startsAt.Sub(now)

	if untilStart < 0 {
		return nil, domain.Validationf("this booking time has already passed")
	}
	if untilStart > s.cfg.ConfirmWindow {
		return nil, domain.Validationf("confirmation is only allowed within %d minutes before the booking",
			int(s.cfg.ConfirmWindow.Minutes()))
	}

	if !confirmed {
		return booking, nil
	}

	updated, err := s.bookingRepo.Confirm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if updated == nil {
		// The booking went terminal between the read and the guarded update.
		return nil, domain.Validationf("this booking can no longer be confirmed")
	}

	if err := s.eventBus.Publish(ctx, events.BookingConfirmed, events.BookingStatusEvent{
		BookingID: updated.ID,
		MasterID:  updated.MasterID,
		Status:    string(updated.Status),
		ChangedAt: now,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking confirmed event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}

	if booking.Status != domain.BookingAccepted && booking.Status != domain.BookingConfirmed {
		return nil, domain.Validationf("only accepted or confirmed bookings can be completed")
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, id, domain.BookingCompleted, nil,
		[]domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed})
	if err != nil {
		return nil, fmt.Errorf("failed to complete booking: %w", err)
	}
	if updated == nil {
		return nil, domain.Validationf("only accepted or confirmed bookings can be completed")
	}

	if err := s.availCache.Invalidate(ctx, updated.MasterID, updated.Date); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate availability cache", "error", err, "master_id", updated.MasterID)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCompleted, events.BookingStatusEvent{
		BookingID: updated.ID,
		MasterID:  updated.MasterID,
		Status:    string(updated.Status),
		ChangedAt: s.clock.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking completed event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}
	return booking, nil
}

func (s *bookingService) ListByMaster(ctx context.Context, masterID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookingRepo.ListByMaster(ctx, masterID, limit, offset, status)
}

func (s *bookingService) ListByClient(ctx context.Context, clientID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookingRepo.ListByClient(ctx, clientID, limit, offset, status)
}
