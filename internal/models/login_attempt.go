package models

import "time"

// LoginAttemptRecord tracks consecutive failed logins for one normalized identity
type LoginAttemptRecord struct {
	FailureCount    int        `json:"failure_count"`
	WindowStartedAt time.Time  `json:"window_started_at"`
	LockedUntil     *time.Time `json:"locked_until,omitempty"`
}

// IsLocked reports whether the record holds a lock that has not yet expired
func (r *LoginAttemptRecord) IsLocked(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// IsExpired reports whether the record no longer counts toward lockout.
// A locked record expires with its lock; an unlocked one when the window elapses.
func (r *LoginAttemptRecord) IsExpired(now time.Time, window time.Duration) bool {
	if r.LockedUntil != nil {
		return !now.Before(*r.LockedUntil)
	}
	return !now.Before(r.WindowStartedAt.Add(window))
}

// ExpiresAt returns the instant after which the record can be discarded
func (r *LoginAttemptRecord) ExpiresAt(window time.Duration) time.Time {
	if r.LockedUntil != nil {
		return *r.LockedUntil
	}
	return r.WindowStartedAt.Add(window)
}
