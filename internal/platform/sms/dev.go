package sms

import (
	"context"

	"github.com/timey-uz/timey-backend/pkg/logger"
)

// DevSender logs messages instead of sending them.
type DevSender struct{}

func NewDevSender() *DevSender {
	return &DevSender{}
}

func (s *DevSender) Send(ctx context.Context, phone, text string) Result {
	logger.InfoContext(ctx, "DEV SMS", "phone", phone, "text", text)
	return Result{Sent: false, Provider: "dev", Detail: "dev mode, SMS not sent"}
}
