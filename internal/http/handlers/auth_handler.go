package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/timey-uz/timey-backend/internal/http/response"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

type otpRequestBody struct {
	Phone string `json:"phone"`
}

// RequestOTP issues a verification code for a phone number.
func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	ctx := context.WithValue(r.Context(), logger.PhoneKey, req.Phone)
	res, err := h.otpService.RequestCode(ctx, req.Phone)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, res)
}

type otpVerifyBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP exchanges a valid code for a master session.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	ctx := context.WithValue(r.Context(), logger.PhoneKey, req.Phone)
	session, err := h.otpService.VerifyCode(ctx, req.Phone, req.Code)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, session)
}

type guestSessionBody struct {
	DeviceID string `json:"device_id"`
}

// StartGuestSession creates or resumes a device-bound guest session.
func (h *Handlers) StartGuestSession(w http.ResponseWriter, r *http.Request) {
	var req guestSessionBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	session, err := h.guestService.StartSession(r.Context(), req.DeviceID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, session)
}
