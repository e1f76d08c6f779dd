package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	AppName         string
	AppBaseURL      string
	Environment     string
	SessionDuration time.Duration
	Debug           bool

	// Database
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Security
	CSRFSecret     string
	TokenSecret    string
	RateLimit      int
	RateLimitEvery time.Duration
	TrustedProxies string

	// Uploads
	StorageBackend  string
	UploadDir       string
	UploadMaxSize   int64
	PublicMediaURL  string
	S3Bucket        string
	S3Endpoint      string
	S3PublicBaseURL string
	AWSRegion       string

	// Email
	EmailProvider  string
	EmailFromEmail string
	EmailFromName  string
	SendGridAPIKey string

	// Generated text
	GeminiAPIKey string
	GeminiModel  string

	// Realtime
	RealtimeBackend string

	// Alerts
	TelegramBotToken string
	TelegramChatID   string

	// Error reporting
	RollbarToken string

	// Sermon feed import
	SermonFeedURL      string
	SermonFeedInterval time.Duration

	// OAuth
	OAuthRedirectBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		AppName:         getEnv("APP_NAME", "Fellowship"),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		Environment:     getEnv("APP_ENV", "development"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		Debug:           getEnvBool("DEBUG", false),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./fellowship.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		CSRFSecret:     getEnv("CSRF_SECRET", "change-me-csrf"),
		TokenSecret:    getEnv("TOKEN_SECRET", "change-me-token"),
		RateLimit:      getEnvInt("RATE_LIMIT", 10),
		RateLimitEvery: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		TrustedProxies: getEnv("TRUSTED_PROXIES", ""),

		StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxSize:   int64(getEnvInt("UPLOAD_MAX_SIZE", 5*1024*1024)), // 5MB
		PublicMediaURL:  getEnv("PUBLIC_MEDIA_URL", "/media"),
		S3Bucket:        getEnv("S3_BUCKET", "images"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		EmailProvider:  getEnv("EMAIL_PROVIDER", "ses"),
		EmailFromEmail: getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Fellowship"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		RealtimeBackend: getEnv("REALTIME_BACKEND", "memory"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		RollbarToken: getEnv("ROLLBAR_TOKEN", ""),

		SermonFeedURL:      getEnv("SERMON_FEED_URL", ""),
		SermonFeedInterval: getEnvDuration("SERMON_FEED_INTERVAL", 6*time.Hour),

		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
