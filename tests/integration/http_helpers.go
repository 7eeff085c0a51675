//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/denimhub/dashboard/internal/auth"
	"github.com/denimhub/dashboard/internal/config"
	"github.com/denimhub/dashboard/internal/database"
	"github.com/denimhub/dashboard/internal/handlers"
	"github.com/denimhub/dashboard/internal/metrics"
	middlewareCustom "github.com/denimhub/dashboard/internal/middleware"
	"github.com/denimhub/dashboard/internal/repositories"
	"github.com/denimhub/dashboard/internal/routes"
	"github.com/denimhub/dashboard/internal/services"
	pkgauth "github.com/denimhub/dashboard/pkg/auth"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
	pkglogger "github.com/denimhub/dashboard/pkg/logger"
)

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	Config       *config.Config
	AttemptStore services.AttemptStore
	Metrics      *metrics.Metrics
}

// NewTestServer wires the production stack against a real database. A nil
// store selects the bounded in-memory attempt store.
func NewTestServer(db *database.DB, store services.AttemptStore) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			MaxLoginAttempts:    3,
			LockoutDuration:     15 * time.Minute,
			SessionTTL:          24 * time.Hour,
			AttemptStoreMaxSize: 1000,
			CleanupInterval:     time.Hour,
			CookieSecure:        true,
		},
		RateLimit: config.RateLimitConfig{
			LoginRequests:        10,
			LoginWindow:          15 * time.Minute,
			APIRequestsPerMinute: 120,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
			TrustedProxies: []string{"127.0.0.1/32", "::1/128"},
		},
	}

	if store == nil {
		memoryStore, err := repositories.NewMemoryAttemptStore(cfg.Auth.AttemptStoreMaxSize)
		if err != nil {
			return nil, err
		}
		store = memoryStore
	}

	appMetrics := metrics.NewWithRegistry(prometheus.NewRegistry())
	auditLogger := pkglogger.NewAuditLogger(logger)

	userRepo := repositories.NewUserRepository(db.Pool)
	auditRepo := repositories.NewAuditLogRepository(db.Pool)

	lockoutConfig := services.LockoutConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}

	authService := services.NewAuthService(services.AuthDeps{
		Users:       userRepo,
		Verifier:    pkgauth.BcryptVerifier{},
		RateLimiter: services.NewRateLimitService(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow, logger),
		Attempts:    services.NewLoginAttemptTracker(store, lockoutConfig, logger),
		Audit:       services.NewAuditService(auditRepo, logger, auditLogger, appMetrics),
		Sessions:    pkgauth.NewSessionIssuer(cfg.Auth.SessionTTL),
		Lockout:     lockoutConfig,
		Metrics:     appMetrics,
		AuditLogger: auditLogger,
		Logger:      logger,
	})

	// httptest servers listen on loopback, which is trusted so tests can pick
	// their origin with X-Forwarded-For
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	cookieConfig := auth.CookieConfig{Secure: cfg.Auth.CookieSecure}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieConfig, cfg.Auth.SessionTTL, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, routes.Dependencies{
		AuthHandler: authHandler,
		Health:      db,
		APIRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.APIRequestsPerMinute,
			IPConfig:          ipConfig,
			Metrics:           appMetrics,
		},
		MetricsHandler: http.NotFoundHandler(),
	})

	return &TestServer{
		Server:       httptest.NewServer(r),
		DB:           db,
		Config:       cfg,
		AttemptStore: store,
		Metrics:      appMetrics,
	}, nil
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// Login posts credentials from the given client IP
func (ts *TestServer) Login(email, password, clientIP string) (*http.Response, error) {
	body := map[string]string{"email": email, "password": password}
	return ts.Request(http.MethodPost, "/api/auth/login", body, map[string]string{
		"X-Forwarded-For": clientIP,
		"User-Agent":      "integration-test",
	})
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
