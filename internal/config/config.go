package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevSessionSecret is the SESSION_SECRET fallback. It is public and only fit
// for local development.
const DevSessionSecret = "dev-only-session-secret-change-me"

// Config holds application configuration
type Config struct {
	ServerPort      string
	AppBaseURL      string
	StaticFilesPath string
	LogLevel        string
	// TrustProxy honors X-Forwarded-For/X-Real-IP; enable only behind a reverse proxy
	TrustProxy      bool

	// Remote backend
	APIBaseURL     string
	RequestTimeout time.Duration

	// Session persistence: "sql", "redis" or "memory"
	SessionStore    string
	SessionSecret   string
	SessionDuration time.Duration
	SweepInterval   time.Duration
	CookieName      string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Password reset delivery
	ShowResetToken bool
	AWSRegion      string
	SESFromEmail   string
	SESFromName    string

	// Rate limiting for POST auth routes
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "3000"),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),

		APIBaseURL:     strings.TrimRight(getEnv("API_URL", "http://localhost:8080/api"), "/"),
		RequestTimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),

		SessionStore:    strings.ToLower(getEnv("SESSION_STORE", "sql")),
		SessionSecret:   getEnv("SESSION_SECRET", DevSessionSecret),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SweepInterval:   getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		CookieName:      getEnv("SESSION_COOKIE", "huahuacuna_session"),

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./huahuacuna.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ShowResetToken: getEnvBool("SHOW_RESET_TOKEN", false),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "Fundación Huahuacuna"),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// InsecureSecret reports whether SessionSecret is the development fallback
func (c *Config) InsecureSecret() bool {
	return c.SessionSecret == DevSessionSecret
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
