package config

import (
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
	defaultDSN       = "file:cleanbook.db?_pragma=busy_timeout(5000)"
)

type Config struct {
	AppEnv      string        `envconfig:"APP_ENV" default:"dev"`
	DatabaseURL string        `envconfig:"DATABASE_URL" default:"file:cleanbook.db?_pragma=busy_timeout(5000)"`
	JWTSecret   string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	BusinessTZ  string        `envconfig:"BUSINESS_TZ" default:"UTC"`

	SweepEnabled  bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"cleanbook.events"`
	PaymentQueue string `envconfig:"PAYMENT_QUEUE" default:"cleanbook.payment.q"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	Location *time.Location `ignored:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("config: loaded .env")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	loc, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TZ %q: %w", cfg.BusinessTZ, err)
	}
	cfg.Location = loc

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config: env=%s addr=%s tz=%s sweep_enabled=%t sweep_interval=%s amqp=%t tracing=%t",
		cfg.AppEnv, cfg.HTTPAddr, cfg.BusinessTZ, cfg.SweepEnabled, cfg.SweepInterval, cfg.AMQPURL != "", cfg.OTLPEndpoint != "")

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.SweepEnabled && cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if cfg.AMQPURL != "" && strings.TrimSpace(cfg.AMQPExchange) == "" {
		return fmt.Errorf("AMQP_EXCHANGE must not be empty when AMQP_URL is set")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.DatabaseURL, defaultDSN) {
			return fmt.Errorf("in prod/release DATABASE_URL must be set and not default")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
