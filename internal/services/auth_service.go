package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/denimhub/dashboard/internal/auth"
	"github.com/denimhub/dashboard/internal/metrics"
	"github.com/denimhub/dashboard/internal/models"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
	pkglogger "github.com/denimhub/dashboard/pkg/logger"
)

// UserRepository looks up accounts allowed to log in
type UserRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordVerifier compares a plaintext password with a stored hash
type PasswordVerifier interface {
	Verify(password, hash string) (bool, error)
}

// RateLimiter counts requests per key
type RateLimiter interface {
	Check(ctx context.Context, key string) (RateLimitDecision, error)
}

// AttemptTracker tracks consecutive failures per identity
type AttemptTracker interface {
	CheckAttempts(ctx context.Context, identity string) (AttemptStatus, error)
	RecordFailure(ctx context.Context, identity string) (*models.LoginAttemptRecord, error)
	Clear(ctx context.Context, identity string) error
}

// AuditRecorder receives login outcomes. It must not fail the login.
type AuditRecorder interface {
	RecordLogin(ctx context.Context, entry LoginAuditEntry)
}

// SessionIssuer mints session tokens
type SessionIssuer interface {
	Issue(issuedAt time.Time) (string, time.Time, error)
}

// User-facing messages
const (
	msgRateLimited = "Too many login attempts. Please try again later."
	msgValidation  = "Please check that the email and password are valid."
	msgLockedOut   = "Account locked. You have exceeded the maximum number of attempts."
	msgInternal    = "An unexpected server error occurred. Please try again later."
	msgWelcomeBack = "Welcome back!"
)

// AuthDeps are the collaborators of AuthService
type AuthDeps struct {
	Users       UserRepository
	Verifier    PasswordVerifier
	RateLimiter RateLimiter
	Attempts    AttemptTracker
	Audit       AuditRecorder
	Sessions    SessionIssuer
	Lockout     LockoutConfig
	Timing      *auth.TimingDelay
	Metrics     *metrics.Metrics
	AuditLogger *pkglogger.AuditLogger
	Logger      *slog.Logger
	Now         func() time.Time
}

// AuthService runs the login pipeline: rate limit, validation, lockout
// check, user lookup, password check, then session issuance.
type AuthService struct {
	users       UserRepository
	verifier    PasswordVerifier
	limiter     RateLimiter
	attempts    AttemptTracker
	audit       AuditRecorder
	sessions    SessionIssuer
	lockout     LockoutConfig
	timing      *auth.TimingDelay
	metrics     *metrics.Metrics
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthDeps) *AuthService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:       deps.Users,
		verifier:    deps.Verifier,
		limiter:     deps.RateLimiter,
		attempts:    deps.Attempts,
		audit:       deps.Audit,
		sessions:    deps.Sessions,
		lockout:     deps.Lockout,
		timing:      deps.Timing,
		metrics:     deps.Metrics,
		auditLogger: deps.AuditLogger,
		logger:      deps.Logger,
		now:         now,
	}
}

// LoginMeta carries request facts that are not part of the body
type LoginMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResult is a successful login
type LoginResult struct {
	User         *models.User
	SessionToken string
	ExpiresAt    time.Time
	Message      string
}

// LoginError is an expected, user-facing login failure. Err is one of the
// models sentinels; anything unexpected is reported as models.ErrInternalServer.
type LoginError struct {
	Err          error
	Message      string
	RetryAfter   time.Duration
	AttemptsLeft int
	Locked       bool
	FieldErrors  []pkghttp.FieldError
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %v", e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Code returns the machine-readable error code for the failure
func (e *LoginError) Code() string {
	switch {
	case errors.Is(e.Err, models.ErrRateLimitExceeded):
		return pkghttp.CodeRateLimitExceeded
	case errors.Is(e.Err, models.ErrValidation):
		return pkghttp.CodeValidationError
	case errors.Is(e.Err, models.ErrAccountLocked):
		return pkghttp.CodeAccountLocked
	case errors.Is(e.Err, models.ErrInvalidCredentials):
		return pkghttp.CodeInvalidCredentials
	default:
		return pkghttp.CodeInternalError
	}
}

// Login authenticates req. A nil req means the body could not be decoded;
// it is rejected as a validation failure after the rate limit is applied.
// Every failure is returned as a *LoginError.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, meta LoginMeta) (result *LoginResult, err error) {
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic during login",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result = nil
			err = internalLoginError()
		}
		s.observe(start, err)
	}()

	origin := meta.IPAddress
	if origin == "" {
		origin = pkghttp.UnknownOrigin
	}

	// 1. per-origin rate limit
	decision, err := s.limiter.Check(ctx, LoginRateLimitKeyPrefix+origin)
	if err != nil {
		return nil, s.unexpected(ctx, "rate limit check failed", err)
	}
	if !decision.Allowed {
		s.metrics.IncRateLimited("login")
		if s.auditLogger != nil {
			s.auditLogger.LogSecurityEvent(ctx, pkglogger.EventRateLimited, origin, nil)
		}
		return nil, &LoginError{
			Err:        models.ErrRateLimitExceeded,
			Message:    msgRateLimited,
			RetryAfter: decision.RetryAfter,
		}
	}

	// 2. input validation
	if req == nil {
		return nil, &LoginError{
			Err:         models.ErrValidation,
			Message:     msgValidation,
			FieldErrors: []pkghttp.FieldError{{Field: "body", Message: "must be a JSON object with email and password"}},
		}
	}
	fields, err := validateStruct(req)
	if err != nil {
		return nil, s.unexpected(ctx, "login validation failed", err)
	}
	if len(fields) > 0 {
		return nil, &LoginError{Err: models.ErrValidation, Message: msgValidation, FieldErrors: fields}
	}

	identity := NormalizeIdentity(req.Email)

	// 3. lockout check, before the user store is touched
	status, err := s.attempts.CheckAttempts(ctx, identity)
	if err != nil {
		return nil, s.unexpected(ctx, "attempt check failed", err)
	}
	if !status.Allowed {
		s.logger.InfoContext(ctx, "login rejected: identity locked",
			slog.String("email", pkglogger.SanitizedEmail(identity)))
		return nil, &LoginError{
			Err:     models.ErrAccountLocked,
			Message: s.lockedMessage(),
			Locked:  true,
		}
	}

	// 4. identity lookup
	user, err := s.users.FindActiveByEmail(ctx, identity)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.InfoContext(ctx, "login failed: invalid credentials")
		return nil, s.rejectCredentials(ctx, identity, origin, status, start)
	}
	if err != nil {
		return nil, s.unexpected(ctx, "user lookup failed", err)
	}

	// 5. credential check
	match, err := s.verifier.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, s.unexpected(ctx, "password verification failed", err)
	}
	if !match {
		s.logger.InfoContext(ctx, "login failed: invalid credentials", slog.String("user_id", user.ID))
		s.audit.RecordLogin(ctx, LoginAuditEntry{
			UserID:        user.ID,
			Email:         identity,
			IPAddress:     origin,
			UserAgent:     meta.UserAgent,
			Success:       false,
			FailureReason: models.AuditReasonInvalidPassword,
		})
		return nil, s.rejectCredentials(ctx, identity, origin, status, start)
	}

	// 6. success; the token is issued before any state changes
	token, expiresAt, err := s.sessions.Issue(s.now())
	if err != nil {
		return nil, s.unexpected(ctx, "session issuance failed", err)
	}

	if err := s.attempts.Clear(ctx, identity); err != nil {
		s.logger.WarnContext(ctx, "failed to clear login attempts",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	s.audit.RecordLogin(ctx, LoginAuditEntry{
		UserID:    user.ID,
		Email:     identity,
		IPAddress: origin,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		User:         user,
		SessionToken: token,
		ExpiresAt:    expiresAt,
		Message:      msgWelcomeBack,
	}, nil
}

// rejectCredentials records a failure and builds the INVALID_CREDENTIALS
// response. A lookup miss and a wrong password produce the same payload.
func (s *AuthService) rejectCredentials(ctx context.Context, identity, origin string, status AttemptStatus, start time.Time) error {
	if _, err := s.attempts.RecordFailure(ctx, identity); err != nil {
		return s.unexpected(ctx, "failed to record login failure", err)
	}

	attemptsLeft := max(0, status.AttemptsLeft-1)
	locked := attemptsLeft == 0
	if locked {
		s.metrics.IncLockout()
		if s.auditLogger != nil {
			s.auditLogger.LogSecurityEvent(ctx, pkglogger.EventLockout, origin, map[string]string{
				"email": pkglogger.SanitizedEmail(identity),
			})
		}
	}

	s.timing.WaitFrom(ctx, start)

	return &LoginError{
		Err:          models.ErrInvalidCredentials,
		Message:      invalidCredentialsMessage(attemptsLeft),
		AttemptsLeft: attemptsLeft,
		Locked:       locked,
	}
}

// unexpected logs err in full and returns the generic internal failure
func (s *AuthService) unexpected(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return internalLoginError()
}

func internalLoginError() *LoginError {
	return &LoginError{Err: models.ErrInternalServer, Message: msgInternal}
}

func (s *AuthService) lockedMessage() string {
	return fmt.Sprintf(
		"Account temporarily locked. You have exceeded the maximum number of attempts (%d). Try again in %s.",
		s.lockout.MaxAttempts, formatMinutes(s.lockout.LockoutDuration))
}

func invalidCredentialsMessage(attemptsLeft int) string {
	if attemptsLeft <= 0 {
		return msgLockedOut
	}
	noun := "attempts"
	if attemptsLeft == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("Invalid credentials. You have %d %s left.", attemptsLeft, noun)
}

func formatMinutes(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func (s *AuthService) observe(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	var loginErr *LoginError
	if errors.As(err, &loginErr) {
		outcome = loginErr.Code()
	} else if err != nil {
		outcome = pkghttp.CodeInternalError
	}
	s.metrics.ObserveLoginOutcome(outcome)
	s.metrics.ObserveLoginDuration(float64(s.now().Sub(start).Milliseconds()))
}
