package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/platform/geo"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/internal/utils"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

type ListMastersOptions struct {
	ServiceType   string
	Lat, Lng      *float64
	Sort          string // rating or distance
	OnlyAvailable bool
}

type MasterService interface {
	CreateMaster(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error)
	GetMaster(ctx context.Context, id int64) (*domain.Master, error)
	ListMasters(ctx context.Context, opts ListMastersOptions) ([]domain.MasterListItem, error)
}

type masterService struct {
	masterRepo   postgres.MasterRepository
	availability AvailabilityService
}

func NewMasterService(masterRepo postgres.MasterRepository, availability AvailabilityService) MasterService {
	return &masterService{
		masterRepo:   masterRepo,
		availability: availability,
	}
}

func (s *masterService) CreateMaster(ctx context.Context, req *domain.CreateMasterRequest) (*domain.Master, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, domain.Validationf("full_name is required")
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return nil, domain.Validationf("service_type is required")
	}
	req.Phone = utils.NormalizePhone(req.Phone)
	if !utils.IsValidPhone(req.Phone) {
		return nil, domain.Validationf("phone is invalid")
	}

	existing, err := s.masterRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing master: %w", err)
	}
	if existing != nil {
		return nil, domain.Validationf("a master with this phone already exists")
	}

	master, err := s.masterRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create master: %w", err)
	}
	return master, nil
}

func (s *masterService) GetMaster(ctx context.Context, id int64) (*domain.Master, error) {
	master, err := s.masterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get master: %w", err)
	}
	if master == nil {
		return nil, domain.ErrNotFound
	}
	return master, nil
}

// ListMasters enriches each master with distance and today-availability,
// then filters and sorts in memory. Fine for small master counts; a spatial
// index would be needed at scale.
func (s *masterService) ListMasters(ctx context.Context, opts ListMastersOptions) ([]domain.MasterListItem, error) {
	masters, err := s.masterRepo.List(ctx, opts.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list masters: %w", err)
	}

	items := make([]domain.MasterListItem, 0, len(masters))
	for _, m := range masters {
		avail, err := s.availability.TodayAvailability(ctx, m.ID)
		if err != nil {
			logger.WarnContext(ctx, "Failed to compute availability", "error", err, "master_id", m.ID)
			avail = &domain.TodayAvailability{}
		}
		if opts.OnlyAvailable && !avail.IsAvailableToday {
			continue
		}

		item := domain.MasterListItem{
			ID:                m.ID,
			FullName:          m.FullName,
			ServiceType:       m.ServiceType,
			Rating:            m.Rating,
			DiscountPercent:   avail.DiscountPercent,
			IsAvailableToday:  avail.IsAvailableToday,
			NextAvailableTime: avail.NextAvailableTime,
		}
		if opts.Lat != nil && opts.Lng != nil && m.Location != nil {
			km := geo.Distance(*opts.Lat, *opts.Lng, m.Location.Lat, m.Location.Lng)
			item.DistanceKm = &km
		}
		items = append(items, item)
	}

	switch opts.Sort {
	case "distance":
		sort.SliceStable(items, func(i, j int) bool {
			di, dj := items[i].DistanceKm, items[j].DistanceKm
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return *di < *dj
		})
	case "rating":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Rating > items[j].Rating
		})
	}

	return items, nil
}
