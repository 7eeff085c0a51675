package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/denimhub/dashboard/internal/auth"
	"github.com/denimhub/dashboard/internal/models"
	"github.com/denimhub/dashboard/internal/services"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
	pkglogger "github.com/denimhub/dashboard/pkg/logger"
)

// maxLoginBodyBytes caps the login request body
const maxLoginBodyBytes = 1 << 14

// expiresAtLayout is RFC3339 in UTC with millisecond precision
const expiresAtLayout = "2006-01-02T15:04:05.000Z07:00"

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, req *services.LoginRequest, meta services.LoginMeta) (*services.LoginResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service    AuthServiceInterface
	ipConfig   *pkghttp.IPConfig
	cookie     auth.CookieConfig
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookie auth.CookieConfig, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:    service,
		ipConfig:   ipConfig,
		cookie:     cookie,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// UserResponse is the user part of a successful login
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	RoleID    *int   `json:"roleId"`
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	User         *UserResponse `json:"user"`
	SessionToken string        `json:"sessionToken"`
	ExpiresAt    string        `json:"expiresAt"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body services.LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	meta := services.LoginMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}

	// an undecodable body is passed as nil so the rate limit still applies first
	var req *services.LoginRequest
	var body services.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&body); err == nil {
		req = &body
	}

	result, err := h.service.Login(r.Context(), req, meta)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, result.ExpiresAt, h.sessionTTL, h.cookie)

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:      true,
		Message:      result.Message,
		User:         userModelToResponse(result.User),
		SessionToken: result.SessionToken,
		ExpiresAt:    result.ExpiresAt.UTC().Format(expiresAtLayout),
	})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var loginErr *services.LoginError
	if !errors.As(err, &loginErr) {
		h.logger.Error("login returned an unexpected error", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "An unexpected server error occurred. Please try again later.")
		return
	}

	switch {
	case errors.Is(loginErr, models.ErrRateLimitExceeded):
		pkghttp.WriteRateLimited(w, loginErr.Message, loginErr.RetryAfter)
	case errors.Is(loginErr, models.ErrValidation):
		pkghttp.WriteValidationError(w, loginErr.Message, loginErr.FieldErrors)
	case errors.Is(loginErr, models.ErrAccountLocked):
		pkghttp.WriteAccountLocked(w, loginErr.Message)
	case errors.Is(loginErr, models.ErrInvalidCredentials):
		pkghttp.WriteInvalidCredentials(w, loginErr.Message, loginErr.AttemptsLeft, loginErr.Locked)
	default:
		pkghttp.WriteInternalError(w, loginErr.Message)
	}
}

// userModelToResponse escapes user-supplied strings before they are echoed
func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     pkglogger.EscapeForDisplay(user.Email),
		FirstName: pkglogger.EscapeForDisplay(user.FirstName),
		LastName:  pkglogger.EscapeForDisplay(user.LastName),
		Role:      user.Role(),
		RoleID:    user.RoleID,
	}
}
