package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret               string
	JWTAccessTokenDuration  time.Duration
	JWTRefreshTokenDuration time.Duration

	// Admin
	AdminUsername             string
	AdminPassword             string
	AdminEmail                string
	AdminAlertEmail           string
	AdminPasswordResetEnabled bool

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Media S3 (product images and radio audio)
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaImagesBucket      string
	MediaAudioBucket       string

	// Local storage
	LocalAssetsPath string

	// Radio
	RadioPollInterval   time.Duration // session reconciliation period
	RadioConfigCacheTTL time.Duration // Redis cache TTL for the broadcast config
	RadioDefaultVolume  float64       // 0..1, applied once embedded playback is confirmed

	// Security
	BcryptCost                  int
	RateLimitRequests           int
	RateLimitDuration           time.Duration
	AdminRateLimitActions       int
	AdminRateLimitWindowMinutes int
	UploadMaxPerDay             int

	// CORS
	AllowedOrigins []string

	// Background workers
	PendingOrderCleanupEnabled bool
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "essenza"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "essenza_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),
		JWTRefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TOKEN_DURATION", "168h"),

		// Admin
		AdminUsername:             getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:             getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:                getEnv("ADMIN_EMAIL", "admin@essenza.fr"),
		AdminAlertEmail:           getEnv("ADMIN_ALERT_EMAIL", ""),
		AdminPasswordResetEnabled: getEnv("ADMIN_PASSWORD_RESET_ENABLED", "false") == "true",

		// Stripe
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "https://essenza.fr/checkout/success"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "https://essenza.fr/checkout/cancel"),

		// SMTP
		SMTPHost:     getEnv("SMTP_HOST", "smtp.essenza.fr"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername: getEnv("SMTP_USERNAME", "boutique@essenza.fr"),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "boutique@essenza.fr"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Essenza"),

		// Media S3
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnv("MEDIA_S3_USE_PATH_STYLE", "true") == "true",
		MediaImagesBucket:      getEnv("MEDIA_IMAGES_BUCKET", "essenza-images"),
		MediaAudioBucket:       getEnv("MEDIA_AUDIO_BUCKET", "essenza-audio"),

		// Local storage
		LocalAssetsPath: getEnv("LOCAL_ASSETS_PATH", "/data/assets"),

		// Radio
		RadioPollInterval:   getEnvAsDuration("RADIO_POLL_INTERVAL", "5s"),
		RadioConfigCacheTTL: getEnvAsDuration("RADIO_CONFIG_CACHE_TTL", "3s"),
		RadioDefaultVolume:  getEnvAsFloat("RADIO_DEFAULT_VOLUME", 0.8),

		// Security
		BcryptCost:                  getEnvAsInt("BCRYPT_COST", 12),
		RateLimitRequests:           getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration:           getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),
		AdminRateLimitActions:       getEnvAsInt("ADMIN_RATE_LIMIT_ACTIONS", 3),
		AdminRateLimitWindowMinutes: getEnvAsInt("ADMIN_RATE_LIMIT_WINDOW_MINUTES", 10),
		UploadMaxPerDay:             getEnvAsInt("UPLOAD_MAX_PER_DAY", 30),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://essenza.fr"}),

		// Background workers
		PendingOrderCleanupEnabled: getEnv("PENDING_ORDER_CLEANUP_ENABLED", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
