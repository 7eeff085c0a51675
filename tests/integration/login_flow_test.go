//go:build integration

package integration

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denimhub/dashboard/internal/handlers"
	"github.com/denimhub/dashboard/internal/models"
	"github.com/denimhub/dashboard/internal/repositories"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func newServer(t *testing.T) *TestServer {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))

	ts, err := NewTestServer(testDB.DB, nil)
	require.NoError(t, err)
	t.Cleanup(ts.Close)
	return ts
}

func TestLogin_Success(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	email, password := TestUser("success")
	user, err := SeedUser(ctx, testDB.DB, email, password, "MANAGER")
	require.NoError(t, err)

	before := time.Now().UTC()
	resp, err := ts.Login(strings.ToUpper(email), password, "203.0.113.10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sessionToken" {
			cookie = c
		}
	}

	var body handlers.LoginResponse
	require.NoError(t, ParseJSONResponse(resp, &body))

	assert.True(t, body.Success)
	assert.Equal(t, "Welcome back!", body.Message)
	require.NotNil(t, body.User)
	assert.Equal(t, user.ID, body.User.ID)
	assert.Equal(t, "MANAGER", body.User.Role)
	assert.Len(t, body.SessionToken, 64)

	expiresAt, err := time.Parse(time.RFC3339, body.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(24*time.Hour), expiresAt, 5*time.Second)

	require.NotNil(t, cookie)
	assert.Equal(t, body.SessionToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 86400, cookie.MaxAge)

	rows, err := ListAuditRows(ctx, testDB.Pool, email)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Success)
	assert.Equal(t, "203.0.113.10", rows[0].IPAddress)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, user.ID, *rows[0].UserID)
}

func TestLogin_LockoutCountdown(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	email, password := TestUser("lockout")
	_, err := SeedUser(ctx, testDB.DB, email, password, "USER")
	require.NoError(t, err)

	for _, wantLeft := range []int{2, 1, 0} {
		resp, err := ts.Login(email, "wrong-password", "203.0.113.20")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body pkghttp.ErrorResponse
		require.NoError(t, ParseJSONResponse(resp, &body))
		assert.Equal(t, pkghttp.CodeInvalidCredentials, body.ErrorCode)
		require.NotNil(t, body.AttemptsLeft)
		assert.Equal(t, wantLeft, *body.AttemptsLeft)
		require.NotNil(t, body.Locked)
		assert.Equal(t, wantLeft == 0, *body.Locked)
	}

	// Correct password is refused while the lock holds
	resp, err := ts.Login(email, password, "203.0.113.20")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body pkghttp.ErrorResponse
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, pkghttp.CodeAccountLocked, body.ErrorCode)

	rows, err := ListAuditRows(ctx, testDB.Pool, email)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.False(t, row.Success)
		require.NotNil(t, row.FailureReason)
		assert.Equal(t, models.AuditReasonInvalidPassword, *row.FailureReason)
	}
}

func TestLogin_UnknownAndInactiveUsersLookIdentical(t *testing.T) {
	ts := newServer(t)
	ctx := context.Background()

	email, password := TestUser("inactive")
	user, err := SeedUser(ctx, testDB.DB, email, password, "USER")
	require.NoError(t, err)
	require.NoError(t, DeactivateUser(ctx, testDB.Pool, user.ID))

	unknownEmail, _ := TestUser("unknown")

	var bodies []pkghttp.ErrorResponse
	for _, e := range []string{email, unknownEmail} {
		resp, err := ts.Login(e, password, "203.0.113.30")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body pkghttp.ErrorResponse
		require.NoError(t, ParseJSONResponse(resp, &body))
		bodies = append(bodies, body)
	}

	assert.Equal(t, bodies[0], bodies[1])

	rows, err := ListAuditRows(ctx, testDB.Pool, email)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLogin_RateLimitedPerOrigin(t *testing.T) {
	ts := newServer(t)

	email, _ := TestUser("ratelimit")
	limit := ts.Config.RateLimit.LoginRequests

	for i := 0; i < limit; i++ {
		resp, err := ts.Login(email, "", "203.0.113.40")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, err := ts.Login(email, "", "203.0.113.40")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	var body pkghttp.ErrorResponse
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, pkghttp.CodeRateLimitExceeded, body.ErrorCode)

	// A different origin is unaffected
	resp, err = ts.Login(email, "", "203.0.113.41")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newServer(t)

	resp, err := ts.Request(http.MethodGet, "/health", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestAuditRetentionCleanup(t *testing.T) {
	newServer(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO login_audit_log (id, email, ip_address, success, timestamp)
		VALUES (gen_random_uuid(), 'old@denimhub.test', '203.0.113.50', false, NOW() - INTERVAL '120 days'),
		       (gen_random_uuid(), 'new@denimhub.test', '203.0.113.50', true, NOW())
	`)
	require.NoError(t, err)

	deleted, err := repositories.NewAuditLogRepository(testDB.Pool).Cleanup(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
