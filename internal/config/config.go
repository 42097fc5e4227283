package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	StorePrefix        string
	IdempotencyTTL     time.Duration
	// RateLimit uses the limiter format "<limit>-<period>", e.g. "60-M".
	RateLimit string

	Payee   PayeeConfig
	QR      QRConfig
	Receipt ReceiptConfig
}

// PayeeConfig describes the merchant that payment links pay into.
type PayeeConfig struct {
	Scheme       string
	Handle       string
	BusinessName string
	Currency     string
	FieldSet     string
}

// QRConfig controls payment QR rendering.
type QRConfig struct {
	Size  int
	Level string
}

// ReceiptConfig is the letterhead printed on receipts.
type ReceiptConfig struct {
	Address  string
	Phone    string
	GSTIN    string
	Footer   string
	Timezone string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		StorePrefix:        valueOrDefault(k.String("BILLING_STORE_PREFIX"), "billing:"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimit:          valueOrDefault(k.String("PAYMENT_LINK_RATE_LIMIT"), "60-M"),
		Payee: PayeeConfig{
			Scheme:       valueOrDefault(k.String("PAYEE_SCHEME"), "upi"),
			Handle:       strings.TrimSpace(k.String("PAYEE_HANDLE")),
			BusinessName: strings.TrimSpace(k.String("PAYEE_BUSINESS_NAME")),
			Currency:     valueOrDefault(k.String("PAYEE_CURRENCY"), "INR"),
			FieldSet:     valueOrDefault(k.String("PAYEE_FIELD_SET"), "default"),
		},
		QR: QRConfig{
			Size:  parseInt(k.String("QR_SIZE_PX"), 256),
			Level: valueOrDefault(k.String("QR_LEVEL"), "M"),
		},
		Receipt: ReceiptConfig{
			Address:  strings.TrimSpace(k.String("RECEIPT_ADDRESS")),
			Phone:    strings.TrimSpace(k.String("RECEIPT_PHONE")),
			GSTIN:    strings.TrimSpace(k.String("RECEIPT_GSTIN")),
			Footer:   strings.TrimSpace(k.String("RECEIPT_FOOTER")),
			Timezone: valueOrDefault(k.String("RECEIPT_TIMEZONE"), "Asia/Kolkata"),
		},
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.Payee.Handle == "" {
		return nil, errors.New("PAYEE_HANDLE is required")
	}
	if cfg.QR.Size < 64 || cfg.QR.Size > 2048 {
		return nil, fmt.Errorf("QR_SIZE_PX must be between 64 and 2048, got %d", cfg.QR.Size)
	}
	if _, err := time.LoadLocation(cfg.Receipt.Timezone); err != nil {
		return nil, fmt.Errorf("RECEIPT_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Location resolves the receipt timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Receipt.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
