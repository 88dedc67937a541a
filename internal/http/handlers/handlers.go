package handlers

import (
	"net/http"
	"strconv"

	"github.com/timey-uz/timey-backend/internal/http/middleware"
	"github.com/timey-uz/timey-backend/internal/service"
	"github.com/timey-uz/timey-backend/pkg/auth"
	"github.com/timey-uz/timey-backend/pkg/config"
)

type Handlers struct {
	bookingService      service.BookingService
	masterService       service.MasterService
	availabilityService service.AvailabilityService
	otpService          service.OTPService
	guestService        service.GuestService
	config              *config.Config
}

func New(
	bookingService service.BookingService,
	masterService service.MasterService,
	availabilityService service.AvailabilityService,
	otpService service.OTPService,
	guestService service.GuestService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		bookingService:      bookingService,
		masterService:       masterService,
		availabilityService: availabilityService,
		otpService:          otpService,
		guestService:        guestService,
		config:              cfg,
	}
}

// RequireMaster enforces an authenticated master token.
func (h *Handlers) RequireMaster(next http.Handler) http.Handler {
	return middleware.RequireRole(h.config.Auth.JWTSecret, "master")(next)
}

func getClaims(r *http.Request) *auth.Claims {
	return middleware.ClaimsFromRequest(r)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
