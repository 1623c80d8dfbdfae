package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (tokens are issued by the identity service)
	JWTSecret string

	// Access: comma-separated user ids treated as moderators / admins
	ModeratorUserIDs string
	AdminUserIDs     string

	// Review policy
	ReviewDeadlineDays  int
	ReviewExtensionDays int
	ReviewQuorum        int
	AuditRetentionYears int

	// Background jobs
	ResolverInterval   time.Duration
	ResolverBatchSize  int
	AuditPruneInterval time.Duration
	SystemLogRetention time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
	LogLevel    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "moderation_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ModeratorUserIDs: getEnv("MODERATOR_USER_IDS", ""),
		AdminUserIDs:     getEnv("ADMIN_USER_IDS", ""),

		ReviewDeadlineDays:  getInt("REVIEW_DEADLINE_DAYS", 7),
		ReviewExtensionDays: getInt("REVIEW_EXTENSION_DAYS", 3),
		ReviewQuorum:        getInt("REVIEW_QUORUM", 3),
		AuditRetentionYears: getInt("AUDIT_RETENTION_YEARS", 2),

		ResolverInterval:   parseDuration(getEnv("RESOLVER_INTERVAL", "5m"), 5*time.Minute),
		ResolverBatchSize:  getInt("RESOLVER_BATCH_SIZE", 500),
		AuditPruneInterval: parseDuration(getEnv("AUDIT_PRUNE_INTERVAL", "720h"), 720*time.Hour),
		SystemLogRetention: parseDuration(getEnv("SYSTEM_LOG_RETENTION", "720h"), 720*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects settings the review workflow cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.ReviewDeadlineDays < 1 {
		errs = append(errs, errors.New("REVIEW_DEADLINE_DAYS must be at least 1"))
	}
	if c.ReviewExtensionDays < 1 {
		errs = append(errs, errors.New("REVIEW_EXTENSION_DAYS must be at least 1"))
	}
	if c.ReviewQuorum < 1 {
		errs = append(errs, errors.New("REVIEW_QUORUM must be at least 1"))
	}
	if c.AuditRetentionYears < 1 {
		errs = append(errs, errors.New("AUDIT_RETENTION_YEARS must be at least 1"))
	}
	if c.ResolverInterval <= 0 || c.AuditPruneInterval <= 0 {
		errs = append(errs, errors.New("job intervals must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
