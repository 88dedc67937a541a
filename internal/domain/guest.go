package domain

import "time"

// GuestProfile is a device-identified anonymous client account.
type GuestProfile struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GuestSessionResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int64  `json:"expires_in"`
	GuestID      int64  `json:"guest_id"`
}
