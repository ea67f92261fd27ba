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
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Logging        LoggingConfig
	CORS           CORSConfig
	RateLimit      RateLimitConfig
	Email          EmailConfig
	Storage        StorageConfig
	AdminBootstrap AdminBootstrapConfig
	DataSource     string
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type RateLimitConfig struct {
	PublicPerMinute int
	APIPerMinute    int
	LoginPerMinute  int
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AdminBootstrapConfig struct {
	Organization string
	Email        string
	Password     string
	FullName     string
}

const (
	DataSourceLive = "live"
	DataSourceMock = "mock"
)

func Load() (Config, error) {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "carebridge-portal"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 60),
			APIPerMinute:    getEnvInt("RATE_LIMIT_API", 300),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", "CareBridge Portal <noreply@carebridge.health>"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "portal-documents"),
			UseSSL:    getEnvBool("STORAGE_USE_SSL", true),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Organization: getEnv("ADMIN_ORGANIZATION", ""),
			Email:        getEnv("ADMIN_EMAIL", ""),
			Password:     getEnv("ADMIN_PASSWORD", ""),
			FullName:     getEnv("ADMIN_FULL_NAME", "Portal Administrator"),
		},
		DataSource:  getEnv("PORTAL_DATA_SOURCE", DataSourceLive),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	cfg.CORS.AllowAllOrigins = cfg.Environment == "development" && len(cfg.CORS.AllowedOrigins) == 0

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DataSource != DataSourceLive && cfg.DataSource != DataSourceMock {
		return Config{}, fmt.Errorf("PORTAL_DATA_SOURCE must be %q or %q", DataSourceLive, DataSourceMock)
	}
	if cfg.Environment == "production" && cfg.DataSource == DataSourceMock {
		return Config{}, fmt.Errorf("PORTAL_DATA_SOURCE=mock is not allowed in production")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
