package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the booking and OTP cores. Handlers translate these
// into the HTTP error envelope; services wrap everything else as internal.
var (
	ErrNotFound     = errors.New("not found")
	ErrSlotConflict = errors.New("this time slot is already booked for the selected master")
	ErrCodeInvalid  = errors.New("invalid verification code")
	ErrCodeExpired  = errors.New("verification code has expired")
)

// ValidationError marks malformed or policy-violating input. It is never
// retried and surfaces to the caller with its message intact.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RateLimitedError carries the remaining wait before a new OTP may be sent.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", e.WaitSeconds())
}

func (e *RateLimitedError) WaitSeconds() int64 {
	secs := int64(e.RetryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
