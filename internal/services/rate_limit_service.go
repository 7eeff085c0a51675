package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// LoginRateLimitKeyPrefix namespaces origin keys apart from identity keys
const LoginRateLimitKeyPrefix = "login:"

// RateLimitDecision is the result of a rate limit check
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimitService enforces a sliding-window request limit per key.
// Every allowed check is counted, whatever the request's outcome.
type RateLimitService struct {
	counter httprate.LimitCounter
	limit   int
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// RateLimitOption customizes a RateLimitService
type RateLimitOption func(*RateLimitService)

// WithRateLimitClock overrides the limiter's time source
func WithRateLimitClock(now func() time.Time) RateLimitOption {
	return func(s *RateLimitService) {
		s.now = now
	}
}

// WithLimitCounter replaces the in-process counter, e.g. with a shared one
func WithLimitCounter(counter httprate.LimitCounter) RateLimitOption {
	return func(s *RateLimitService) {
		s.counter = counter
	}
}

// NewRateLimitService allows limit requests per key in any window
func NewRateLimitService(limit int, window time.Duration, logger *slog.Logger, opts ...RateLimitOption) *RateLimitService {
	s := &RateLimitService{
		counter: httprate.NewLocalLimitCounter(window),
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.counter.Config(limit, window)
	return s
}

// Check counts one request against key and reports whether it is allowed.
// The previous window's count is weighted by how much of it still overlaps
// the sliding window.
func (s *RateLimitService) Check(_ context.Context, key string) (RateLimitDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	currentWindow := now.Truncate(s.window)
	previousWindow := currentWindow.Add(-s.window)

	curr, prev, err := s.counter.Get(key, currentWindow, previousWindow)
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	elapsed := now.Sub(currentWindow)
	weight := float64(s.window-elapsed) / float64(s.window)
	rate := int(math.Round(float64(prev)*weight)) + curr

	if rate >= s.limit {
		retryAfter := currentWindow.Add(s.window).Sub(now)
		s.logger.Debug("rate limit exceeded",
			slog.String("key", key),
			slog.Int("rate", rate),
			slog.Duration("retry_after", retryAfter))
		return RateLimitDecision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	if err := s.counter.IncrementBy(key, currentWindow, 1); err != nil {
		return RateLimitDecision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return RateLimitDecision{Allowed: true}, nil
}
