package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingConfirmed BookingStatus = "confirmed"
	// BookingClientNotConfirmed is declared in the status set but no
	// transition assigns it; kept for schema compatibility.
	BookingClientNotConfirmed BookingStatus = "client_not_confirmed"
	BookingCancelled          BookingStatus = "cancelled"
	BookingCompleted          BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingAccepted, BookingRejected, BookingConfirmed,
		BookingClientNotConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// NonTerminalStatuses are the statuses that still occupy a slot.
var NonTerminalStatuses = []BookingStatus{BookingPending, BookingAccepted, BookingConfirmed}

// Terminal reports whether the status can never transition again.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingRejected, BookingCancelled, BookingCompleted, BookingClientNotConfirmed:
		return true
	default:
		return false
	}
}

type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
)

func ParsePaymentType(s string) (PaymentType, bool) {
	switch PaymentType(s) {
	case PaymentCash, PaymentCard:
		return PaymentType(s), true
	default:
		return "", false
	}
}

type Booking struct {
	ID              int64         `json:"id"`
	ClientID        int64         `json:"client_id"`
	MasterID        int64         `json:"master_id"`
	ServiceType     string        `json:"service_type"`
	Date            time.Time     `json:"date"`
	SlotTime        string        `json:"time"`
	PaymentType     PaymentType   `json:"payment_type"`
	Status          BookingStatus `json:"status"`
	ExpiresAt       time.Time     `json:"expires_at"`
	RejectReason    *string       `json:"reject_reason,omitempty"`
	ClientConfirmed bool          `json:"client_confirmed"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// StartsAt combines the booking's date and slot time in the given location.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return CombineDateTime(b.Date, b.SlotTime, loc)
}

type CreateBookingRequest struct {
	ClientID    int64       `json:"user_id"`
	MasterID    int64       `json:"master_id"`
	ServiceType string      `json:"service_type"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	PaymentType PaymentType `json:"payment_type"`
}

const slotTimeLayout = "15:04"

// ParseSlotTime normalizes a time-of-day string to minute precision.
// Seconds are truncated, "9:30" becomes "09:30".
func ParseSlotTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(slotTimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
}

const dateLayout = "2006-01-02"

// ParseDate parses a calendar date in the given location, midnight-anchored.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateOnly drops the clock component of t, keeping its location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CombineDateTime anchors a normalized HH:MM slot onto a date in loc.
// The calendar day is taken from date's own representation so that DATE
// columns scanned in UTC do not shift across the zone boundary.
func CombineDateTime(date time.Time, slot string, loc *time.Location) time.Time {
	t, err := time.Parse(slotTimeLayout, slot)
	if err != nil {
		y, m, d := date.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
