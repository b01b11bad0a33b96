package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Token    TokenConfig
	Email    EmailConfig
	Payments PaymentsConfig
	OAuth    OAuthConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// TokenConfig holds session token and verification code lifetimes
type TokenConfig struct {
	Secret    string
	AccessTTL time.Duration
	CodeTTL   time.Duration
}

// EmailConfig holds the transactional email provider settings
type EmailConfig struct {
	APIKey  string
	APIURL  string
	From    string
	Timeout time.Duration
}

// PaymentsConfig holds the payment provider settings
type PaymentsConfig struct {
	SecretKey     string
	WebhookSecret string
	Domain        string
	Timeout       time.Duration
}

// OAuthConfig holds the Google OAuth client settings
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURI        string
	SessionSecret      string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lumikid"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Token: TokenConfig{
			Secret:    getEnv("JWT_SECRET", "change-this-in-production"),
			AccessTTL: getEnvAsSeconds("ACCESS_TOKEN_EXPIRE_SECONDS", 25200*time.Second), // 7 hours
			CodeTTL:   getEnvAsSeconds("CODE_EXPIRE_SECONDS", 3600*time.Second),          // 1 hour
		},
		Email: EmailConfig{
			APIKey:  getEnv("RESEND_API_KEY", ""),
			APIURL:  getEnv("RESEND_API_URL", "https://api.resend.com/emails"),
			From:    getEnv("EMAIL_FROM", "no-reply@lumikid.site"),
			Timeout: getEnvAsSeconds("EMAIL_TIMEOUT_SECONDS", 10*time.Second),
		},
		Payments: PaymentsConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Domain:        getEnv("STRIPE_DOMAIN", "https://lumikid.site"),
			Timeout:       getEnvAsSeconds("PAYMENT_TIMEOUT_SECONDS", 10*time.Second),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:        getEnv("REDIRECT_URI", "http://localhost:8000/api/v1/auth/google/callback"),
			SessionSecret:      getEnv("OAUTH_SESSION_SECRET", "change-this-in-production"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
