// Package config centralizes runtime configuration for both halves of the
// storefront: the API client used by the state managers and the development
// API server. Values come from environment variables with sane defaults.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Server settings.
	AppPort     string
	DatabaseDSN string
	JWTSecret   string
	RabbitMQURL string

	// Client settings.
	APIBaseURL     string
	HTTPTimeout    time.Duration
	CartStorageDir string

	// Payment provider settings.
	PaymentPublicKey string
	Currency         string
}

// Load reads configuration from environment variables.
func Load() Config {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DSN", "") // empty selects a local SQLite file; "memory" skips the database entirely
	v.SetDefault("JWT_SECRET", "dev_secret_change_me")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("CART_STORAGE_DIR", ".storefront")
	v.SetDefault("PAYMENT_PUBLIC_KEY", "pk_test_dev")
	v.SetDefault("CURRENCY", "USD")
	v.AutomaticEnv()

	return Config{
		AppPort:          v.GetString("APP_PORT"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		APIBaseURL:       v.GetString("API_BASE_URL"),
		HTTPTimeout:      v.GetDuration("HTTP_TIMEOUT"),
		CartStorageDir:   v.GetString("CART_STORAGE_DIR"),
		PaymentPublicKey: v.GetString("PAYMENT_PUBLIC_KEY"),
		Currency:         v.GetString("CURRENCY"),
	}
}
