package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/timey-uz/timey-backend/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects
const (
	BookingCreated   = "booking.created"
	BookingAccepted  = "booking.accepted"
	BookingRejected  = "booking.rejected"
	BookingConfirmed = "booking.confirmed"
	BookingCompleted = "booking.completed"
	BookingExpired   = "booking.expired"

	OTPRequested = "otp.requested"
	OTPVerified  = "otp.verified"

	AvailabilityUpdated = "availability.updated"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID   int64     `json:"booking_id"`
	ClientID    int64     `json:"client_id"`
	MasterID    int64     `json:"master_id"`
	ServiceType string    `json:"service_type"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingStatusEvent struct {
	BookingID int64     `json:"booking_id"`
	MasterID  int64     `json:"master_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type BookingExpiredEvent struct {
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}

type OTPRequestedEvent struct {
	Phone       string    `json:"phone"`
	SMSSent     bool      `json:"sms_sent"`
	RequestedAt time.Time `json:"requested_at"`
}

type OTPVerifiedEvent struct {
	Phone      string    `json:"phone"`
	MasterID   int64     `json:"master_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

type AvailabilityUpdatedEvent struct {
	MasterID        int64    `json:"master_id"`
	Date            string   `json:"date"`
	Slots           []string `json:"slots"`
	DiscountPercent int      `json:"discount_percent"`
}
