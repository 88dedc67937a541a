package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timey-uz/timey-backend/internal/cache"
	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/pkg/events"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

type AvailabilityService interface {
	Upsert(ctx context.Context, masterID int64, date string, slots []string, discountPercent int) (*domain.Availability, error)
	TodayAvailability(ctx context.Context, masterID int64) (*domain.TodayAvailability, error)
	NextAvailableTime(ctx context.Context, masterID int64) (*string, error)
}

type availabilityService struct {
	masterRepo  postgres.MasterRepository
	bookingRepo postgres.BookingRepository
	availCache  cache.AvailabilityCache
	eventBus    events.Publisher
	clock       Clock
}

func NewAvailabilityService(
	masterRepo postgres.MasterRepository,
	bookingRepo postgres.BookingRepository,
	availCache cache.AvailabilityCache,
	eventBus events.Publisher,
	clock Clock,
) AvailabilityService {
	return &availabilityService{
		masterRepo:  masterRepo,
		bookingRepo: bookingRepo,
		availCache:  availCache,
		eventBus:    eventBus,
		clock:       clock,
	}
}

func (s *availabilityService) Upsert(ctx context.Context, masterID int64, date string, slots []string, discountPercent int) (*domain.Availability, error) {
	if discountPercent < 0 || discountPercent > 100 {
		return nil, domain.Validationf("discount_percent must be between 0 and 100")
	}

	day, err := domain.ParseDate(date, s.clock.Now().Location())
	if err != nil {
		return nil, domain.Validationf("%s", err.Error())
	}

	normalized, err := normalizeSlots(slots)
	if err != nil {
		return nil, err
	}

	master, err := s.masterRepo.GetByID(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load master: %w", err)
	}
	if master == nil {
		return nil, domain.ErrNotFound
	}

	avail, err := s.masterRepo.UpsertAvailability(ctx, masterID, day, normalized, discountPercent)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert availability: %w", err)
	}

	if err := s.availCache.Invalidate(ctx, masterID, day); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate availability cache", "error", err, "master_id", masterID)
	}

	if err := s.eventBus.Publish(ctx, events.AvailabilityUpdated, events.AvailabilityUpdatedEvent{
		MasterID:        masterID,
		Date:            domain.FormatDate(day),
		Slots:           normalized,
		DiscountPercent: discountPercent,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish availability updated event", "error", err, "master_id", masterID)
	}

	return avail, nil
}

// TodayAvailability computes against today's record only; there is no
// fallback to other dates.
func (s *availabilityService) TodayAvailability(ctx context.Context, masterID int64) (*domain.TodayAvailability, error) {
	today := domain.DateOnly(s.clock.Now())

	if cached, err := s.availCache.Get(ctx, masterID, today); err != nil {
		logger.WarnContext(ctx, "Availability cache read failed", "error", err, "master_id", masterID)
	} else if cached != nil {
		return cached, nil
	}

	result, err := s.compute(ctx, masterID, today)
	if err != nil {
		return nil, err
	}

	if err := s.availCache.Set(ctx, masterID, today, result); err != nil {
		logger.WarnContext(ctx, "Availability cache write failed", "error", err, "master_id", masterID)
	}

	return result, nil
}

func (s *availabilityService) NextAvailableTime(ctx context.Context, masterID int64) (*string, error) {
	avail, err := s.TodayAvailability(ctx, masterID)
	if err != nil {
		return nil, err
	}
	return avail.NextAvailableTime, nil
}

func (s *availabilityService) compute(ctx context.Context, masterID int64, day time.Time) (*domain.TodayAvailability, error) {
	record, err := s.masterRepo.GetAvailability(ctx, masterID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	if record == nil {
		return &domain.TodayAvailability{}, nil
	}

	consumedTimes, err := s.bookingRepo.ActiveSlotTimes(ctx, masterID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked slots: %w", err)
	}
	consumed := make(map[string]bool, len(consumedTimes))
	for _, t := range consumedTimes {
		consumed[t] = true
	}

	slots := append([]string(nil), record.Slots...)
	sort.Strings(slots)

	result := &domain.TodayAvailability{DiscountPercent: record.DiscountPercent}
	for _, slot := range slots {
		if !consumed[slot] {
			next := slot
			result.IsAvailableToday = true
			result.NextAvailableTime = &next
			break
		}
	}
	return result, nil
}

func normalizeSlots(slots []string) ([]string, error) {
	seen := make(map[string]bool, len(slots))
	normalized := make([]string, 0, len(slots))
	for _, s := range slots {
		slot, err := domain.ParseSlotTime(s)
		if err != nil {
			return nil, domain.Validationf("%s", err.Error())
		}
		if !seen[slot] {
			seen[slot] = true
			normalized = append(normalized, slot)
		}
	}
	sort.Strings(normalized)
	return normalized, nil
}
