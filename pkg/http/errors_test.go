package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	pkghttp "github.com/denimhub/dashboard/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteError(w, 400, "TEST_ERROR", "Test message")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "TEST_ERROR", resp["error_code"])
	assert.Equal(t, "Test message", resp["message"])
	assert.NotContains(t, resp, "attemptsLeft")
	assert.NotContains(t, resp, "locked")
}

func TestWriteRateLimited_SetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteRateLimited(w, "Too many requests", 899500*time.Millisecond)

	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkghttp.CodeRateLimitExceeded, resp.ErrorCode)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, pkghttp.RetryAfterSeconds(0))
	assert.Equal(t, 1, pkghttp.RetryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 60, pkghttp.RetryAfterSeconds(time.Minute))
	assert.Equal(t, 61, pkghttp.RetryAfterSeconds(60*time.Second+time.Millisecond))
}

func TestWriteAccountLocked_IncludesZeroAttempts(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteAccountLocked(w, "Account locked")

	assert.Equal(t, 429, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkghttp.CodeAccountLocked, resp["error_code"])
	assert.Equal(t, float64(0), resp["attemptsLeft"], "attemptsLeft must be present even when zero")
	assert.Equal(t, true, resp["locked"])
}

func TestWriteInvalidCredentials(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteInvalidCredentials(w, "Invalid credentials", 2, false)

	assert.Equal(t, 401, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkghttp.CodeInvalidCredentials, resp["error_code"])
	assert.Equal(t, float64(2), resp["attemptsLeft"])
	assert.Equal(t, false, resp["locked"])
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteValidationError(w, "Invalid input", []pkghttp.FieldError{{Field: "email", Message: "must be a valid email address"}})

	assert.Equal(t, 400, w.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkghttp.CodeValidationError, resp.ErrorCode)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "email", resp.Errors[0].Field)
}

func TestWriteInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteInternalError(w, "Server error")

	assert.Equal(t, 500, w.Code)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pkghttp.CodeInternalError, resp.ErrorCode)
	assert.False(t, resp.Success)
}
