package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Machine-readable error codes returned in error_code
const (
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_SERVER_ERROR"
	CodeNotFound           = "NOT_FOUND"
)

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`               // Human-readable message
	ErrorCode    string       `json:"error_code"`            // Machine-readable error code
	AttemptsLeft *int         `json:"attemptsLeft,omitempty"` // Login countdown, present for lockout outcomes
	Locked       *bool        `json:"locked,omitempty"`
	Errors       []FieldError `json:"errors,omitempty"`
}

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not exposed to the client
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: errorCode,
	})
}

// WriteRateLimited writes a 429 with a Retry-After header rounded up to whole seconds
func WriteRateLimited(w http.ResponseWriter, message string, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(retryAfter)))
	}
	WriteError(w, http.StatusTooManyRequests, CodeRateLimitExceeded, message)
}

// RetryAfterSeconds rounds a duration up to whole seconds, minimum 1
func RetryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func WriteValidationError(w http.ResponseWriter, message string, fields []FieldError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: CodeValidationError,
		Errors:    fields,
	})
}

func WriteAccountLocked(w http.ResponseWriter, message string) {
	attemptsLeft := 0
	locked := true
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Success:      false,
		Message:      message,
		ErrorCode:    CodeAccountLocked,
		AttemptsLeft: &attemptsLeft,
		Locked:       &locked,
	})
}

func WriteInvalidCredentials(w http.ResponseWriter, message string, attemptsLeft int, locked bool) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Success:      false,
		Message:      message,
		ErrorCode:    CodeInvalidCredentials,
		AttemptsLeft: &attemptsLeft,
		Locked:       &locked,
	})
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
