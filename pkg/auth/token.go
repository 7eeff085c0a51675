package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionTokenBytes is the amount of randomness in a session token (256 bits)
const SessionTokenBytes = 32

// GenerateSessionToken returns a hex-encoded token from crypto/rand
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// SessionIssuer mints session tokens with a fixed lifetime
type SessionIssuer struct {
	ttl time.Duration
}

// NewSessionIssuer creates a new SessionIssuer
func NewSessionIssuer(ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{ttl: ttl}
}

// TTL returns the configured session lifetime
func (i *SessionIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a fresh token and its absolute expiry relative to issuedAt
func (i *SessionIssuer) Issue(issuedAt time.Time) (string, time.Time, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, issuedAt.Add(i.ttl), nil
}
