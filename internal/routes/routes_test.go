package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/denimhub/dashboard/internal/auth"
	"github.com/denimhub/dashboard/internal/handlers"
	"github.com/denimhub/dashboard/internal/middleware"
	"github.com/denimhub/dashboard/internal/services"
)

func newTestRouter(loginCalls *int) http.Handler {
	svc := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, req *services.LoginRequest, meta services.LoginMeta) (*services.LoginResult, error) {
			*loginCalls++
			return nil, &services.LoginError{Message: "x"}
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	RegisterRoutes(router, Dependencies{
		AuthHandler:    handlers.NewAuthHandler(svc, nil, auth.CookieConfig{}, 24*time.Hour, logger),
		Health:         &handlers.MockHealthChecker{},
		APIRateLimit:   middleware.RateLimitConfig{RequestsPerMinute: 1},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
	})
	return router
}

func TestRegisterRoutes(t *testing.T) {
	var loginCalls int
	router := newTestRouter(&loginCalls)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusTeapot},
		{"POST", "/api/auth/login", http.StatusInternalServerError},
		{"GET", "/api/sales", http.StatusNotFound},
		{"GET", "/api/sales", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.RemoteAddr = "198.51.100.1:1000"
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
	assert.Equal(t, 1, loginCalls)
}

func TestRegisterRoutes_LoginNotBehindCoarseLimiter(t *testing.T) {
	var loginCalls int
	router := newTestRouter(&loginCalls)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.2:1000"
		router.ServeHTTP(w, req)
		assert.NotEqual(t, http.StatusTooManyRequests, w.Code)
	}
	assert.Equal(t, 3, loginCalls)
}
