package domain

import "time"

// OTPChallenge is a short-lived verification code scoped to a phone number.
// At most one unused challenge per phone is treated as active for
// rate-limiting; lookups take the most recent row (highest id) first.
type OTPChallenge struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	IsUsed    bool      `json:"is_used"`
	ExpiresAt time.Time `json:"expires_at"`
	ResendAt  time.Time `json:"resend_at"`
	CreatedAt time.Time `json:"created_at"`
}

type OTPRequestResponse struct {
	Code        string `json:"code"`
	ExpiresIn   int64  `json:"expires_in"`
	ResendAfter int64  `json:"resend_after"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	MasterID     int64  `json:"master_id"`
}
