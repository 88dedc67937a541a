package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/internal/http/response"
	"github.com/timey-uz/timey-backend/internal/service"
)

// CreateMaster registers a new master profile with a location.
func (h *Handlers) CreateMaster(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	master, err := h.masterService.CreateMaster(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, master)
}

// GetMaster returns a single master profile.
func (h *Handlers) GetMaster(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid master ID")
		return
	}

	master, err := h.masterService.GetMaster(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, master)
}

// ListMasters lists masters with optional filters and sorting.
func (h *Handlers) ListMasters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := service.ListMastersOptions{
		ServiceType:   q.Get("service_type"),
		Sort:          q.Get("sort"),
		OnlyAvailable: q.Get("only_available") == "true",
	}

	if raw := q.Get("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(w, "invalid lat parameter")
			return
		}
		opts.Lat = &lat
	}
	if raw := q.Get("lng"); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(w, "invalid lng parameter")
			return
		}
		opts.Lng = &lng
	}

	masters, err := h.masterService.ListMasters(r.Context(), opts)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, masters)
}

type upsertAvailabilityRequest struct {
	Date            string   `json:"date"`
	Slots           []string `json:"available_slots"`
	DiscountPercent int      `json:"discount_percent"`
}

// UpsertAvailability replaces a master's slot list for a date.
func (h *Handlers) UpsertAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid master ID")
		return
	}

	claims := getClaims(r)
	if claims == nil || claims.Sub != id {
		response.Unauthorized(w, "availability can only be edited by its owner")
		return
	}

	var req upsertAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	if _, err := h.availabilityService.Upsert(r.Context(), id, req.Date, req.Slots, req.DiscountPercent); err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// TodayAvailability returns the availability summary for a master.
func (h *Handlers) TodayAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		response.BadRequest(w, "invalid master ID")
		return
	}

	today, err := h.availabilityService.TodayAvailability(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, today)
}
