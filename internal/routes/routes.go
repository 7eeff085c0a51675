package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denimhub/dashboard/internal/handlers"
	"github.com/denimhub/dashboard/internal/middleware"
	pkghttp "github.com/denimhub/dashboard/pkg/http"
)

// Dependencies are the handlers and middleware settings the router needs
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	Health         handlers.HealthChecker
	APIRateLimit   middleware.RateLimitConfig
	MetricsHandler http.Handler // defaults to promhttp.Handler()
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", handlers.Health(deps.Health))

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Handle("/metrics", metricsHandler)

	router.Route("/api", func(r chi.Router) {
		// login enforces its own per-origin limit inside the service
		r.Post("/auth/login", deps.AuthHandler.Login)

		// routes added to this group share the coarse per-IP limit; today only
		// unknown /api paths land here
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(deps.APIRateLimit))
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				pkghttp.WriteError(w, http.StatusNotFound, pkghttp.CodeNotFound, "Resource not found")
			})
		})
	})
}
