package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/platform/sms"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/internal/utils"
	"github.com/timey-uz/timey-backend/pkg/auth"
	"github.com/timey-uz/timey-backend/pkg/config"
	"github.com/timey-uz/timey-backend/pkg/events"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

// Expired challenges are useless after their TTL; keep them for a day so
// recent rows are inspectable, then drop them on the next issuance.
const challengeRetention = 24 * time.Hour

type OTPService interface {
	RequestCode(ctx context.Context, phone string) (*domain.OTPRequestResponse, error)
	VerifyCode(ctx context.Context, phone, code string) (*domain.Session, error)
}

type otpService struct {
	otpRepo    postgres.OTPRepository
	masterRepo postgres.MasterRepository
	sender     sms.Sender
	eventBus   events.Publisher
	clock      Clock
	otpCfg     config.OTPConfig
	authCfg    config.AuthConfig
}

func NewOTPService(
	otpRepo postgres.OTPRepository,
	masterRepo postgres.MasterRepository,
	sender sms.Sender,
	eventBus events.Publisher,
	clock Clock,
	otpCfg config.OTPConfig,
	authCfg config.AuthConfig,
) OTPService {
	return &otpService{
		otpRepo:    otpRepo,
		masterRepo: masterRepo,
		sender:     sender,
		eventBus:   eventBus,
		clock:      clock,
		otpCfg:     otpCfg,
		authCfg:    authCfg,
	}
}

func (s *otpService) RequestCode(ctx context.Context, phone string) (*domain.OTPRequestResponse, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return nil, domain.Validationf("phone is invalid")
	}

	now := s.clock.Now()

	latest, err := s.otpRepo.LatestUnused(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing challenge: %w", err)
	}
	if latest != nil && now.Before(latest.ResendAt) {
		return nil, &domain.RateLimitedError{RetryAfter: latest.ResendAt.Sub(now)}
	}

	// Piggyback cleanup of long-expired challenges on issuance, best-effort.
	if purged, err := s.otpRepo.DeleteExpired(ctx, challengeRetention); err != nil {
		logger.WarnContext(ctx, "Failed to purge expired challenges", "error", err)
	} else if purged > 0 {
		logger.DebugContext(ctx, "Purged expired challenges", "count", purged)
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	challenge := &domain.OTPChallenge{
		Phone:     phone,
		Code:      code,
		ExpiresAt: now.Add(s.otpCfg.CodeTTL),
		ResendAt:  now.Add(s.otpCfg.ResendWindow),
	}
	if _, err := s.otpRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	// Dispatch is best-effort: the challenge is already committed and a
	// delivery failure must not fail the request.
	result := s.sender.Send(ctx, phone, fmt.Sprintf("Timey: your verification code is %s", code))
	if !result.Sent {
		logger.WarnContext(ctx, "SMS not delivered", "provider", result.Provider, "detail", result.Detail, "phone", phone)
	}

	if err := s.eventBus.Publish(ctx, events.OTPRequested, events.OTPRequestedEvent{
		Phone:       phone,
		SMSSent:     result.Sent,
		RequestedAt: now,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish otp requested event", "error", err, "phone", phone)
	}

	return &domain.OTPRequestResponse{
		Code:        code,
		ExpiresIn:   int64(s.otpCfg.CodeTTL.Seconds()),
		ResendAfter: int64(s.otpCfg.ResendWindow.Seconds()),
	}, nil
}

func (s *otpService) VerifyCode(ctx context.Context, phone, code string) (*domain.Session, error) {
	phone = utils.NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Validationf("code is required")
	}

	now := s.clock.Now()

	challenge, err := s.otpRepo.Consume(ctx, phone, code, now)
	if err != nil {
		return nil, err
	}

	master, err := s.masterRepo.FindOrCreateByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve master profile: %w", err)
	}

	access, refresh, err := auth.NewSessionPair(master.ID, phone,
		s.authCfg.JWTSecret, s.authCfg.AccessTokenTTL, s.authCfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.OTPVerified, events.OTPVerifiedEvent{
		Phone:      challenge.Phone,
		MasterID:   master.ID,
		VerifiedAt: now,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish otp verified event", "error", err, "phone", phone)
	}

	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.authCfg.AccessTokenTTL.Seconds()),
		MasterID:     master.ID,
	}, nil
}

// generateCode draws a uniform 6-digit code from the full 000000-999999 range.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
