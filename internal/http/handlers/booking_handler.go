package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/http/response"
)

// CreateBooking handles booking creation by a client.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"expires_at": booking.ExpiresAt,
	})
}

type masterActionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// MasterAction lets the master accept or reject a pending booking.
func (h *Handlers) MasterAction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid booking ID")
		return
	}

	var req masterActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		response.BadRequest(w, "invalid status parameter")
		return
	}

	booking, err := h.bookingService.MasterAction(r.Context(), id, status, req.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, booking)
}

type clientConfirmRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ClientConfirm records the client's pre-appointment confirmation.
func (h *Handlers) ClientConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid booking ID")
		return
	}

	var req clientConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	booking, err := h.bookingService.ClientConfirm(r.Context(), id, req.Confirmed)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, booking)
}

// CompleteBooking marks an appointment as finished.
func (h *Handlers) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid booking ID")
		return
	}

	booking, err := h.bookingService.CompleteBooking(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, booking)
}

// GetBooking returns a single booking by ID.
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid booking ID")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, booking)
}

// ListMasterBookings lists bookings for the authenticated master.
func (h *Handlers) ListMasterBookings(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "master session required")
		return
	}

	limit, offset := parsePagination(r)
	status, ok := parseStatusFilter(r)
	if !ok {
		response.BadRequest(w, "invalid status parameter")
		return
	}

	bookings, err := h.bookingService.ListByMaster(r.Context(), claims.Sub, limit, offset, status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

// ListClientBookings lists bookings for a client by user_id.
func (h *Handlers) ListClientBookings(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || clientID <= 0 {
		response.BadRequest(w, "invalid user_id parameter")
		return
	}

	limit, offset := parsePagination(r)
	status, ok := parseStatusFilter(r)
	if !ok {
		response.BadRequest(w, "invalid status parameter")
		return
	}

	bookings, err := h.bookingService.ListByClient(r.Context(), clientID, limit, offset, status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseStatusFilter(r *http.Request) (*domain.BookingStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	st, ok := domain.ParseBookingStatus(raw)
	if !ok {
		return nil, false
	}
	return &st, true
}
