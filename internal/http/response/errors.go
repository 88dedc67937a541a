package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/timey-uz/timey-backend/internal/domain"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

// ErrorResponse is the structured JSON error envelope.
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code,omitempty"`
	WaitSeconds int64  `json:"wait_seconds,omitempty"`
}

// Common error codes
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeSlotConflict  = "SLOT_CONFLICT"
	CodeRateLimited   = "RATE_LIMITED"
	CodeNotFound      = "NOT_FOUND"
	CodeCodeInvalid   = "CODE_INVALID"
	CodeCodeExpired   = "CODE_EXPIRED"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// FromError maps a service error onto the HTTP error taxonomy.
func FromError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, ve.Msg, CodeValidation)
		return
	}

	var rl *domain.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.FormatInt(rl.WaitSeconds(), 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		if encErr := json.NewEncoder(w).Encode(ErrorResponse{
			Error:       rl.Error(),
			Code:        CodeRateLimited,
			WaitSeconds: rl.WaitSeconds(),
		}); encErr != nil {
			logger.Error("failed to encode error response", "error", encErr)
		}
		return
	}

	switch {
	case errors.Is(err, domain.ErrSlotConflict):
		WriteError(w, http.StatusConflict, err.Error(), CodeSlotConflict)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "resource not found", CodeNotFound)
	case errors.Is(err, domain.ErrCodeInvalid):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeCodeInvalid)
	case errors.Is(err, domain.ErrCodeExpired):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeCodeExpired)
	default:
		logger.Error("internal error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
