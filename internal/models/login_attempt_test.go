package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginAttemptRecord_Expiry(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	window := 15 * time.Minute
	lockedUntil := start.Add(20 * time.Minute)

	unlocked := &LoginAttemptRecord{FailureCount: 1, WindowStartedAt: start}
	locked := &LoginAttemptRecord{FailureCount: 3, WindowStartedAt: start, LockedUntil: &lockedUntil}

	tests := []struct {
		name        string
		record      *LoginAttemptRecord
		now         time.Time
		wantLocked  bool
		wantExpired bool
	}{
		{"unlocked inside window", unlocked, start.Add(14 * time.Minute), false, false},
		{"unlocked at window end", unlocked, start.Add(window), false, true},
		{"locked before lock ends", locked, start.Add(19 * time.Minute), true, false},
		{"locked outlives window", locked, start.Add(16 * time.Minute), true, false},
		{"locked at lock end", locked, lockedUntil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLocked, tt.record.IsLocked(tt.now))
			assert.Equal(t, tt.wantExpired, tt.record.IsExpired(tt.now, window))
		})
	}
}

func TestLoginAttemptRecord_ExpiresAt(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	lockedUntil := start.Add(30 * time.Minute)

	unlocked := &LoginAttemptRecord{WindowStartedAt: start}
	assert.Equal(t, start.Add(15*time.Minute), unlocked.ExpiresAt(15*time.Minute))

	locked := &LoginAttemptRecord{WindowStartedAt: start, LockedUntil: &lockedUntil}
	assert.Equal(t, lockedUntil, locked.ExpiresAt(15*time.Minute))
}

func TestUser_RoleAndActive(t *testing.T) {
	admin := "ADMIN"
	inactive := false

	assert.Equal(t, DefaultRoleName, (&User{}).Role())
	assert.Equal(t, "ADMIN", (&User{RoleName: &admin}).Role())
	assert.True(t, (&User{}).IsActive())
	assert.False(t, (&User{Active: &inactive}).IsActive())
}
