package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":               "redis://localhost:6379/0",
		"PAYEE_HANDLE":            "tailor@okbank",
		"PORT":                    "",
		"QR_SIZE_PX":              "",
		"RECEIPT_TIMEZONE":        "",
		"IDEMPOTENCY_TTL":         "",
		"PAYEE_FIELD_SET":         "",
		"CORS_ALLOWED_ORIGINS":    "",
		"PAYMENT_LINK_RATE_LIMIT": "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "upi", cfg.Payee.Scheme)
	require.Equal(t, "INR", cfg.Payee.Currency)
	require.Equal(t, "default", cfg.Payee.FieldSet)
	require.Equal(t, 256, cfg.QR.Size)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "60-M", cfg.RateLimit)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = ":9090"
	env["QR_SIZE_PX"] = "512"
	env["PAYEE_FIELD_SET"] = "upi"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.test, https://b.test"
	env["IDEMPOTENCY_TTL"] = "not-a-duration"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 512, cfg.QR.Size)
	require.Equal(t, "upi", cfg.Payee.FieldSet)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadRequiredFields(t *testing.T) {
	env := baseEnv()
	env["REDIS_URL"] = ""
	_, err := LoadForTests(env)
	require.EqualError(t, err, "REDIS_URL is required")

	env = baseEnv()
	env["PAYEE_HANDLE"] = ""
	_, err = LoadForTests(env)
	require.EqualError(t, err, "PAYEE_HANDLE is required")

	env = baseEnv()
	env["QR_SIZE_PX"] = "10"
	_, err = LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["RECEIPT_TIMEZONE"] = "Mars/Olympus"
	_, err = LoadForTests(env)
	require.Error(t, err)
}
