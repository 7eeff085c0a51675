package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/denimhub/dashboard/internal/models"
)

// AttemptStore persists attempt records by normalized identity. A nil record
// with a nil error means nothing is stored. ttl is a hint after which the
// record may be discarded.
type AttemptStore interface {
	Get(ctx context.Context, key string) (*models.LoginAttemptRecord, error)
	Set(ctx context.Context, key string, record *models.LoginAttemptRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LockoutConfig is the lockout policy
type LockoutConfig struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultLockoutConfig allows three failures per fifteen minutes
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:     3,
		LockoutDuration: 15 * time.Minute,
	}
}

// AttemptStatus is the result of CheckAttempts
type AttemptStatus struct {
	Allowed      bool
	AttemptsLeft int
	LockedUntil  *time.Time
}

// LoginAttemptTracker counts consecutive failed logins per identity and locks
// an identity once the count reaches MaxAttempts.
//
// Updates are read-modify-write without per-identity locking. Two concurrent
// failures may both read the same count and write the same increment, so a
// burst can cost one increment. Each caller still gets a countdown derived from
// its own read, and later failures lock the identity normally.
type LoginAttemptTracker struct {
	store  AttemptStore
	config LockoutConfig
	logger *slog.Logger
	now    func() time.Time
}

// TrackerOption customizes a LoginAttemptTracker
type TrackerOption func(*LoginAttemptTracker)

// WithClock overrides the tracker's time source
func WithClock(now func() time.Time) TrackerOption {
	return func(t *LoginAttemptTracker) {
		t.now = now
	}
}

// NewLoginAttemptTracker creates a new LoginAttemptTracker
func NewLoginAttemptTracker(store AttemptStore, config LockoutConfig, logger *slog.Logger, opts ...TrackerOption) *LoginAttemptTracker {
	t := &LoginAttemptTracker{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the lockout policy in effect
func (t *LoginAttemptTracker) Config() LockoutConfig {
	return t.config
}

// NormalizeIdentity case-folds and trims an email so lookups are case-insensitive
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// load returns the live record for key, treating an expired one as absent
func (t *LoginAttemptTracker) load(ctx context.Context, key string, now time.Time) (*models.LoginAttemptRecord, error) {
	record, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt record: %w", err)
	}
	if record == nil || record.IsExpired(now, t.config.LockoutDuration) {
		return nil, nil
	}
	return record, nil
}

// CheckAttempts reports whether identity may attempt a login and how many
// failures it has left before lockout.
func (t *LoginAttemptTracker) CheckAttempts(ctx context.Context, identity string) (AttemptStatus, error) {
	now := t.now()
	record, err := t.load(ctx, NormalizeIdentity(identity), now)
	if err != nil {
		return AttemptStatus{}, err
	}

	if record == nil {
		return AttemptStatus{Allowed: true, AttemptsLeft: t.config.MaxAttempts}, nil
	}

	if record.IsLocked(now) {
		lockedUntil := *record.LockedUntil
		return AttemptStatus{Allowed: false, AttemptsLeft: 0, LockedUntil: &lockedUntil}, nil
	}

	return AttemptStatus{
		Allowed:      true,
		AttemptsLeft: max(0, t.config.MaxAttempts-record.FailureCount),
	}, nil
}

// RecordFailure increments the failure count for identity, starting a new
// window when none is live, and locks the identity at the threshold.
func (t *LoginAttemptTracker) RecordFailure(ctx context.Context, identity string) (*models.LoginAttemptRecord, error) {
	key := NormalizeIdentity(identity)
	now := t.now()

	record, err := t.load(ctx, key, now)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.LoginAttemptRecord{WindowStartedAt: now}
	}

	record.FailureCount++
	if record.FailureCount >= t.config.MaxAttempts {
		lockedUntil := now.Add(t.config.LockoutDuration)
		record.LockedUntil = &lockedUntil
		t.logger.Warn("identity locked after repeated failures",
			slog.Int("failures", record.FailureCount),
			slog.Time("locked_until", lockedUntil))
	}

	ttl := record.ExpiresAt(t.config.LockoutDuration).Sub(now)
	if ttl <= 0 {
		ttl = t.config.LockoutDuration
	}

	if err := t.store.Set(ctx, key, record, ttl); err != nil {
		return nil, fmt.Errorf("failed to save attempt record: %w", err)
	}

	return record, nil
}

// Clear forgets every failure recorded for identity
func (t *LoginAttemptTracker) Clear(ctx context.Context, identity string) error {
	if err := t.store.Delete(ctx, NormalizeIdentity(identity)); err != nil {
		return fmt.Errorf("failed to clear attempt record: %w", err)
	}
	return nil
}
