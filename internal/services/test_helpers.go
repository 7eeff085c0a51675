package services

import (
	"context"
	"sync"
	"time"

	"github.com/denimhub/dashboard/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	FindActiveByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	Lookups               []string
}

func (m *MockUserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	m.Lookups = append(m.Lookups, email)
	if m.FindActiveByEmailFunc != nil {
		return m.FindActiveByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

// MockPasswordVerifier implements PasswordVerifier for testing
type MockPasswordVerifier struct {
	VerifyFunc func(password, hash string) (bool, error)
}

func (m *MockPasswordVerifier) Verify(password, hash string) (bool, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(password, hash)
	}
	return password == hash, nil
}

// MockRateLimiter implements RateLimiter for testing
type MockRateLimiter struct {
	CheckFunc func(ctx context.Context, key string) (RateLimitDecision, error)
	Keys      []string
}

func (m *MockRateLimiter) Check(ctx context.Context, key string) (RateLimitDecision, error) {
	m.Keys = append(m.Keys, key)
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, key)
	}
	return RateLimitDecision{Allowed: true}, nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc func(ctx context.Context, log *models.AuditLog) error
	Created    []*models.AuditLog
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.Created = append(m.Created, log)
	return nil
}

// MockAuditRecorder implements AuditRecorder for testing
type MockAuditRecorder struct {
	Entries []LoginAuditEntry
}

func (m *MockAuditRecorder) RecordLogin(_ context.Context, entry LoginAuditEntry) {
	m.Entries = append(m.Entries, entry)
}

// MockSessionIssuer implements SessionIssuer for testing
type MockSessionIssuer struct {
	IssueFunc func(issuedAt time.Time) (string, time.Time, error)
	TTL       time.Duration
}

func (m *MockSessionIssuer) Issue(issuedAt time.Time) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(issuedAt)
	}
	return "test-session-token", issuedAt.Add(m.TTL), nil
}

// InMemoryAttemptStore is an unbounded AttemptStore for testing. It ignores TTLs;
// expiry is left to the tracker.
type InMemoryAttemptStore struct {
	mu      sync.Mutex
	records map[string]models.LoginAttemptRecord
	GetErr  error
	SetErr  error
	Sets    int
}

func NewInMemoryAttemptStore() *InMemoryAttemptStore {
	return &InMemoryAttemptStore{records: make(map[string]models.LoginAttemptRecord)}
}

func (s *InMemoryAttemptStore) Get(_ context.Context, key string) (*models.LoginAttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *InMemoryAttemptStore) Set(_ context.Context, key string, record *models.LoginAttemptRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.records[key] = *record
	s.Sets++
	return nil
}

func (s *InMemoryAttemptStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Snapshot returns a copy of the stored record for key
func (s *InMemoryAttemptStore) Snapshot(key string) (models.LoginAttemptRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	return record, ok
}

// MockUserStore implements UserStore for testing
type MockUserStore struct {
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User, roleName string) (*models.User, error)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User, roleName string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, roleName)
	}
	created := *user
	created.ID = "00000000-0000-0000-0000-000000000001"
	return &created, nil
}
