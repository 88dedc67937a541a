package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/pkg/auth"
	"github.com/timey-uz/timey-backend/pkg/config"
)

type GuestService interface {
	StartSession(ctx context.Context, deviceID string) (*domain.GuestSessionResponse, error)
}

type guestService struct {
	guestRepo postgres.GuestRepository
	authCfg   config.AuthConfig
}

func NewGuestService(guestRepo postgres.GuestRepository, authCfg config.AuthConfig) GuestService {
	return &guestService{guestRepo: guestRepo, authCfg: authCfg}
}

func (s *guestService) StartSession(ctx context.Context, deviceID string) (*domain.GuestSessionResponse, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, domain.Validationf("device_id is required")
	}

	guest, err := s.guestRepo.FindOrCreateByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guest profile: %w", err)
	}

	token, err := auth.NewGuestSession(guest.ID, deviceID, s.authCfg.JWTSecret, s.authCfg.GuestSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest session: %w", err)
	}

	return &domain.GuestSessionResponse{
		SessionToken: token,
		ExpiresIn:    int64(s.authCfg.GuestSessionTTL.Seconds()),
		GuestID:      guest.ID,
	}, nil
}
