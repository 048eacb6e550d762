package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrNoJWTSecret aborts startup: a service that cannot sign sessions must
// not come up half-working.
var ErrNoJWTSecret = errors.New("AUTH_JWT_SECRET is required")

type Config struct {
	JWTSecret  string        // Required: HMAC secret for session tokens
	Issuer     string        // Optional: issuer claim for tokens (default: proskill-auth)
	SessionTTL time.Duration // Optional: session token lifetime (default: 168h)
	OTPTTL     time.Duration // Optional: OTP validity window (default: 10m)

	// OTPDevCode replaces the random code with a fixed one when set.
	// Strictly for local development against a fake SMS sender.
	OTPDevCode string

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)

	// Roster is the external student directory. Empty DSN disables it.
	RosterDSN   string
	RosterTable string

	// Twilio credentials. Incomplete credentials select the log sender.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	HousekeepingInterval time.Duration // Optional: expired challenge sweep interval (default: 1h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "proskill-auth"),
		SessionTTL: getEnvDurationOrDefault("AUTH_SESSION_TTL", 7*24*time.Hour),
		OTPTTL:     getEnvDurationOrDefault("AUTH_OTP_TTL", 10*time.Minute),
		OTPDevCode: os.Getenv("AUTH_OTP_DEV_CODE"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		RosterDSN:   os.Getenv("ROSTER_POSTGRES_DSN"),
		RosterTable: getEnvOrDefault("ROSTER_TABLE", "students"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrNoJWTSecret
	}

	return cfg, nil
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

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
