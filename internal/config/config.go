package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Payment processor
	PaymentSecretKey     string
	PaymentCallbackToken string

	// Order confirmation relay (email/SMS), best effort
	NotifierURL string
	NotifierKey string

	// Pricing knobs, all amounts in cents
	Currency              string
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	TaxRatePercent        int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		PaymentSecretKey:     os.Getenv("PAYMENT_APIKEY"),
		PaymentCallbackToken: os.Getenv("PAYMENT_CALLBACK_TOKEN"),

		NotifierURL: os.Getenv("NOTIFIER_URL"),
		NotifierKey: os.Getenv("NOTIFIER_APIKEY"),

		Currency:              envOr("CURRENCY", "USD"),
		DeliveryFee:           envInt64("DELIVERY_FEE", 5000),
		FreeDeliveryThreshold: envInt64("FREE_DELIVERY_THRESHOLD", 50000),
		TaxRatePercent:        int(envInt64("TAX_RATE_PERCENT", 8)),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}
