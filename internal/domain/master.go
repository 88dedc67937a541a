package domain

import "time"

type MasterStatus string

const (
	MasterActive   MasterStatus = "active"
	MasterInactive MasterStatus = "inactive"
	MasterBlocked  MasterStatus = "blocked"
)

type Master struct {
	ID              int64        `json:"id"`
	FullName        string       `json:"full_name"`
	Phone           string       `json:"phone"`
	ServiceType     string       `json:"service_type"`
	ExperienceYears int          `json:"experience_years"`
	Rating          float64      `json:"rating"`
	About           string       `json:"about,omitempty"`
	AvatarURL       string       `json:"avatar_url,omitempty"`
	Status          MasterStatus `json:"status"`
	Location        *Location    `json:"location,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

type Location struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Address  string  `json:"address"`
	District string  `json:"district"`
	PlaceID  string  `json:"place_id"`
	Accuracy int     `json:"accuracy"`
}

type CreateMasterRequest struct {
	FullName        string   `json:"full_name"`
	Phone           string   `json:"phone"`
	ServiceType     string   `json:"service_type"`
	ExperienceYears int      `json:"experience_years"`
	About           string   `json:"about"`
	AvatarURL       string   `json:"avatar_url"`
	Location        Location `json:"master_location"`
}

// Availability is the per-(master, date) record of open slots. The latest
// write for a date replaces the slot list and discount wholesale.
type Availability struct {
	ID              int64     `json:"id"`
	MasterID        int64     `json:"master_id"`
	Date            time.Time `json:"date"`
	Slots           []string  `json:"available_slots"`
	DiscountPercent int       `json:"discount_percent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type TodayAvailability struct {
	IsAvailableToday  bool    `json:"is_available_today"`
	NextAvailableTime *string `json:"next_available_time"`
	DiscountPercent   int     `json:"discount_percent"`
}

// MasterListItem is the listing DTO enriched with distance and availability.
type MasterListItem struct {
	ID                int64    `json:"id"`
	FullName          string   `json:"full_name"`
	ServiceType       string   `json:"service_type"`
	Rating            float64  `json:"rating"`
	DistanceKm        *float64 `json:"distance_km"`
	DiscountPercent   int      `json:"discount_percent"`
	IsAvailableToday  bool     `json:"is_available_today"`
	NextAvailableTime *string  `json:"next_available_time"`
}
