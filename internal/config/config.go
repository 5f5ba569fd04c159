package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBHost     string `envconfig:"DB_HOST"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	AppPort    string `envconfig:"APP_PORT" default:"8080"`
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	JWTSecret  string `envconfig:"JWT_SECRET"`

	JWTTTL time.Duration `envconfig:"JWT_TTL" default:"720h"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	PayPal PayPal `envconfig:"PAYPAL"`
	Stripe Stripe `envconfig:"STRIPE"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
}

type PayPal struct {
	ClientID  string `envconfig:"CLIENT_ID"`
	Secret    string `envconfig:"SECRET"`
	APIURL    string `envconfig:"API_URL" default:"https://api-m.sandbox.paypal.com"`
	WebhookID string `envconfig:"WEBHOOK_ID"`
}

type Stripe struct {
	SecretKey     string `envconfig:"SECRET_KEY"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	APIURL        string `envconfig:"API_URL"`
	Currency      string `envconfig:"CURRENCY" default:"usd"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}
