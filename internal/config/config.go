package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	Environment string
	LogLevel    string
	HTTPAddr    string

	DB    DBConfig
	Redis RedisConfig

	Quota     QuotaConfig
	Credits   CreditsConfig
	Generator GeneratorConfig
	Payment   PaymentConfig
}

type DBConfig struct {
	Type     string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QuotaConfig drives the free-generation allowance and its rolling reset.
type QuotaConfig struct {
	CooldownDays       int
	FreeLimitAnonymous int
	FreeLimitSignedIn  int
	HistoryLimit       int
	MigrationLimit     int
}

type CreditsConfig struct {
	PerPurchase int
}

type GeneratorConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

type PaymentConfig struct {
	CheckoutURL string
	SecretKey   string
	SuccessURL  string
	CancelURL   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_NAME", "wingmate"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DB: DBConfig{
			Type:     getenv("DB_TYPE", "sqlite"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			Name:     getenv("DB_NAME", "wingmate"),
			User:     getenv("DB_USER", "wingmate"),
			Password: getenv("DB_PASSWORD", ""),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},
		Quota: QuotaConfig{
			CooldownDays:       getint("QUOTA_COOLDOWN_DAYS", 2),
			FreeLimitAnonymous: getint("QUOTA_FREE_LIMIT_ANONYMOUS", 5),
			FreeLimitSignedIn:  getint("QUOTA_FREE_LIMIT_SIGNED_IN", 10),
			HistoryLimit:       getint("QUOTA_HISTORY_LIMIT", 50),
			MigrationLimit:     getint("QUOTA_MIGRATION_LIMIT", 20),
		},
		Credits: CreditsConfig{
			PerPurchase: getint("CREDITS_PER_PURCHASE", 25),
		},
		Generator: GeneratorConfig{
			BaseURL:        getenv("GENERATOR_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         getenv("GENERATOR_API_KEY", ""),
			Model:          getenv("GENERATOR_MODEL", "gpt-4o-mini"),
			TimeoutSeconds: getint("GENERATOR_TIMEOUT_SECONDS", 60),
		},
		Payment: PaymentConfig{
			CheckoutURL: getenv("PAYMENT_CHECKOUT_URL", "https://api.stripe.com/v1/checkout/sessions"),
			SecretKey:   getenv("PAYMENT_SECRET_KEY", ""),
			SuccessURL:  getenv("PAYMENT_SUCCESS_URL", "http://localhost:8080/?payment=success"),
			CancelURL:   getenv("PAYMENT_CANCEL_URL", "http://localhost:8080/?payment=cancelled"),
		},
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getint(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return value
}
