package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Audit     AuditConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	MaxLoginAttempts    int
	LockoutDuration     time.Duration
	SessionTTL          time.Duration
	AttemptStoreMaxSize int
	CleanupInterval     time.Duration
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
	CookieDomain        string
	CookieSecure        bool
}

// RateLimitConfig covers both the per-origin login limiter and the coarse API limiter
type RateLimitConfig struct {
	LoginRequests        int
	LoginWindow          time.Duration
	APIRequestsPerMinute int
}

// RedisConfig enables the shared attempt store when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuditConfig struct {
	RetentionDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "denim_dashboard"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			MaxLoginAttempts:    getEnvAsInt("LOGIN_MAX_ATTEMPTS", 3),
			LockoutDuration:     getEnvAsDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			AttemptStoreMaxSize: getEnvAsInt("ATTEMPT_STORE_MAX_ENTRIES", 10000),
			CleanupInterval:     getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
			TimingDelayBaseMs:   getEnvAsInt("AUTH_TIMING_DELAY_BASE_MS", 0),
			TimingDelayRandomMs: getEnvAsInt("AUTH_TIMING_DELAY_RANDOM_MS", 0),
			CookieDomain:        getEnv("COOKIE_DOMAIN", ""),
			CookieSecure:        getEnvAsBool("COOKIE_SECURE", true),
		},
		RateLimit: RateLimitConfig{
			LoginRequests:        getEnvAsInt("LOGIN_RATE_LIMIT_REQUESTS", 10),
			LoginWindow:          getEnvAsDuration("LOGIN_RATE_LIMIT_WINDOW", 15*time.Minute),
			APIRequestsPerMinute: getEnvAsInt("API_RATE_LIMIT_PER_MINUTE", 120),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Audit: AuditConfig{
			RetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 90),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.MaxLoginAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1 (got %d)", c.Auth.MaxLoginAttempts)
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("LOGIN_LOCKOUT_DURATION must be positive")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Auth.AttemptStoreMaxSize < 1 {
		return fmt.Errorf("ATTEMPT_STORE_MAX_ENTRIES must be at least 1 (got %d)", c.Auth.AttemptStoreMaxSize)
	}
	if c.RateLimit.LoginRequests < 1 || c.RateLimit.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_REQUESTS and LOGIN_RATE_LIMIT_WINDOW must be positive")
	}
	if c.Server.Env == "production" && !c.Auth.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE cannot be disabled in production")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return parseList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
