package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/denimhub/dashboard/internal/auth"
	"github.com/denimhub/dashboard/internal/background"
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

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(os.Getenv("LOG_LEVEL"))}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db.Pool)
	auditRepo := repositories.NewAuditLogRepository(db.Pool)

	// Attempt store: shared Redis when configured, bounded memory otherwise
	var (
		attemptStore services.AttemptStore
		sweeper      background.AttemptSweeper
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		attemptStore = repositories.NewRedisAttemptStore(redisClient)
		logger.Info("using redis attempt store", slog.String("addr", cfg.Redis.Addr))
	} else {
		memoryStore, err := repositories.NewMemoryAttemptStore(cfg.Auth.AttemptStoreMaxSize)
		if err != nil {
			logger.Error("failed to create attempt store", slog.Any("error", err))
			os.Exit(1)
		}
		attemptStore = memoryStore
		sweeper = memoryStore
	}

	// Initialize security services
	appMetrics := metrics.New()
	auditLogger := pkglogger.NewAuditLogger(logger)

	lockoutConfig := services.LockoutConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}
	attemptTracker := services.NewLoginAttemptTracker(attemptStore, lockoutConfig, logger)
	rateLimitService := services.NewRateLimitService(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow, logger)
	auditService := services.NewAuditService(auditRepo, logger, auditLogger, appMetrics)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	authService := services.NewAuthService(services.AuthDeps{
		Users:       userRepo,
		Verifier:    pkgauth.BcryptVerifier{},
		RateLimiter: rateLimitService,
		Attempts:    attemptTracker,
		Audit:       auditService,
		Sessions:    pkgauth.NewSessionIssuer(cfg.Auth.SessionTTL),
		Lockout:     lockoutConfig,
		Timing:      timingDelay,
		Metrics:     appMetrics,
		AuditLogger: auditLogger,
		Logger:      logger,
	})
	userService := services.NewUserService(userRepo, logger)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := userService.EnsureAdmin(ctx, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Initialize handlers
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	cookieConfig := auth.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Auth.CookieSecure}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieConfig, cfg.Auth.SessionTTL, logger)

	// Setup router. Client IPs are resolved by pkghttp.ExtractClientIP against
	// TRUSTED_PROXIES, so chi's RealIP is not installed.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler: authHandler,
		Health:      db,
		APIRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.APIRequestsPerMinute,
			IPConfig:          ipConfig,
			Metrics:           appMetrics,
		},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(sweeper, auditRepo, cfg.Audit.RetentionDays, appMetrics, logger, cfg.Auth.CleanupInterval)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
