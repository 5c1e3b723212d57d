package app

import (
	"os"
	"strconv"
	"time"

	"github.com/campuskit/portalauth/pkg/tokenx"
)

type Config struct {
	SigningSecret string // Required: shared HS256 secret for credential signing
	Issuer        string // Issuer claim stamped on every credential
	Audience      string // Audience claim; foreign-audience credentials are rejected

	AccessTTL  time.Duration // Access credential lifetime (default: 24h)
	RefreshTTL time.Duration // Refresh credential lifetime (default: 4x access)

	DatabaseFile string // Path to SQLite database file (default: ./portalauth.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	BootstrapEmail    string // Optional: seed admin email when the directory is empty
	BootstrapPassword string // Optional: seed admin password
	BootstrapName     string // Optional: seed admin display name

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Audit log pruning interval (default: 1h)
	AuditRetentionDays   int           // Audit events older than this are pruned (default: 90)
}

func LoadConfig() Config {
	cfg := Config{
		SigningSecret: os.Getenv("PORTAL_SIGNING_SECRET"),
		Issuer:        getEnvOrDefault("PORTAL_ISSUER", "portal-auth"),
		Audience:      getEnvOrDefault("PORTAL_AUDIENCE", "portal"),

		AccessTTL:  getEnvDurationOrDefault("PORTAL_ACCESS_TTL", tokenx.DefaultAccessTTL),
		RefreshTTL: getEnvDurationOrDefault("PORTAL_REFRESH_TTL", 0),

		DatabaseFile: getEnvOrDefault("PORTAL_DATABASE_FILE", "portalauth.db"),
		PepperFile:   getEnvOrDefault("PORTAL_PEPPER_FILE", "pepper"),

		BootstrapEmail:    os.Getenv("PORTAL_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("PORTAL_BOOTSTRAP_PASSWORD"),
		BootstrapName:     getEnvOrDefault("PORTAL_BOOTSTRAP_NAME", "Portal Admin"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetentionDays:   getEnvIntOrDefault("AUDIT_RETENTION_DAYS", 90),
	}

	// The refresh lifetime tracks the access lifetime unless pinned
	// explicitly.
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 4 * cfg.AccessTTL
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
