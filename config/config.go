package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Client    ClientConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
	// Timezone is used to interpret wire booking dates, which carry no offset.
	Timezone string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type OTPConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	Secret      string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For is honoured.
	// Empty means the socket peer is always the client.
	TrustedProxies []string
	IdleTTL        time.Duration
}

type CORSConfig struct {
	// AllowedOrigins defaults to any origin when empty.
	AllowedOrigins []string
	MaxAge         time.Duration
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:     stringOr("APP_PORT", "8080"),
			Env:      stringOr("APP_ENV", "development"),
			LogLevel: stringOr("LOG_LEVEL", "info"),
			Timezone: stringOr("APP_TIMEZONE", "Asia/Jakarta"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		OTP: OTPConfig{
			Length:      intOr("OTP_LENGTH", 6),
			TTL:         durationOr("OTP_TTL", 5*time.Minute),
			MaxAttempts: intOr("OTP_MAX_ATTEMPTS", 5),
			Secret:      viper.GetString("OTP_SECRET"),
		},
		RateLimit: RateLimitConfig{
			RPS:            floatOr("RATE_LIMIT_RPS", 2),
			Burst:          intOr("RATE_LIMIT_BURST", 5),
			TrustedProxies: splitCSV(viper.GetString("RATE_LIMIT_TRUSTED_PROXIES")),
			IdleTTL:        durationOr("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(viper.GetString("CORS_ALLOWED_ORIGINS")),
			MaxAge:         durationOr("CORS_MAX_AGE", 10*time.Minute),
		},
		Client: ClientConfig{
			BaseURL: stringOr("CLIENT_BASE_URL", "http://localhost:8080/api/v1"),
			Timeout: durationOr("CLIENT_TIMEOUT", 10*time.Second),
		},
	}

	if config.OTP.Secret == "" {
		config.OTP.Secret = config.JWT.Secret
	}

	return config, nil
}

func stringOr(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

func floatOr(key string, fallback float64) float64 {
	if v := viper.GetFloat64(key); v > 0 {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
