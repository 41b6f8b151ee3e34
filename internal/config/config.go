package config

import (
	"errors"
	"fmt"
	"os"
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
	CORSAllowedOrigins []string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseDBURL      string
	RedisURL           string

	SumUpClientID     string
	SumUpClientSecret string
	SumUpMerchantCode string
	SumUpBaseURL      string
	StripeSecretKey   string

	PaymentSuccessURL    string
	PaymentCancelURL     string
	PaymentReturnBaseURL string
	CurrencyCode         string

	APIToken            string
	PushProvider        string
	VAPIDPublicKey      string
	VAPIDPrivateKey     string
	VAPIDSubject        string
	FirebaseCredentials string
	FirebaseCredFile    string

	HTTPClientTimeout time.Duration
	IdempotencyTTL    time.Duration
	PushRateWindow    time.Duration
	PushRateMax       int
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
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		SupabaseURL:        strings.TrimRight(strings.TrimSpace(k.String("SUPABASE_URL")), "/"),
		SupabaseServiceKey: strings.TrimSpace(k.String("SUPABASE_SERVICE_ROLE_KEY")),
		SupabaseDBURL:      strings.TrimSpace(k.String("SUPABASE_DB_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),

		SumUpClientID:     strings.TrimSpace(k.String("SUMUP_CLIENT_ID")),
		SumUpClientSecret: strings.TrimSpace(k.String("SUMUP_CLIENT_SECRET")),
		SumUpMerchantCode: strings.TrimSpace(k.String("SUMUP_MERCHANT_CODE")),
		SumUpBaseURL:      valueOrDefault(k.String("SUMUP_BASE_URL"), "https://api.sumup.com"),
		StripeSecretKey:   strings.TrimSpace(k.String("STRIPE_SECRET_KEY")),

		PaymentSuccessURL:    valueOrDefault(k.String("PAYMENT_SUCCESS_URL"), "https://pediae.app/pagamento/sucesso"),
		PaymentCancelURL:     valueOrDefault(k.String("PAYMENT_CANCEL_URL"), "https://pediae.app/pagamento/cancelado"),
		PaymentReturnBaseURL: strings.TrimRight(strings.TrimSpace(k.String("PAYMENT_RETURN_BASE_URL")), "/"),
		CurrencyCode:         valueOrDefault(k.String("CURRENCY_CODE"), "BRL"),

		APIToken:            strings.TrimSpace(k.String("API_TOKEN")),
		PushProvider:        valueOrDefault(strings.ToLower(strings.TrimSpace(k.String("PUSH_PROVIDER"))), "webpush"),
		VAPIDPublicKey:      strings.TrimSpace(k.String("VAPID_PUBLIC_KEY")),
		VAPIDPrivateKey:     strings.TrimSpace(k.String("VAPID_PRIVATE_KEY")),
		VAPIDSubject:        valueOrDefault(k.String("VAPID_SUBJECT"), "mailto:contato@pediae.app"),
		FirebaseCredentials: strings.TrimSpace(k.String("FIREBASE_SERVICE_ACCOUNT")),
		FirebaseCredFile:    strings.TrimSpace(k.String("FIREBASE_SERVICE_ACCOUNT_FILE")),

		HTTPClientTimeout: parseDuration(k.String("HTTP_CLIENT_TIMEOUT"), "10s"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		PushRateWindow:    parseDuration(k.String("PUSH_RATE_WINDOW"), "1m"),
		PushRateMax:       int(k.Int64("PUSH_RATE_MAX")),
	}

	if cfg.PushRateMax <= 0 {
		cfg.PushRateMax = 60
	}

	switch cfg.PushProvider {
	case "webpush", "fcm", "both":
	default:
		return nil, fmt.Errorf("unsupported PUSH_PROVIDER %q", cfg.PushProvider)
	}

	if cfg.SupabaseDBURL == "" {
		if cfg.SupabaseURL == "" {
			return nil, errors.New("SUPABASE_URL is required")
		}
		if cfg.SupabaseServiceKey == "" {
			return nil, errors.New("SUPABASE_SERVICE_ROLE_KEY is required")
		}
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

// SumUpConfigured reports whether the SumUp credentials are complete.
func (c *Config) SumUpConfigured() bool {
	return c.SumUpClientID != "" && c.SumUpClientSecret != "" && c.SumUpMerchantCode != ""
}

// WebPushConfigured reports whether a VAPID key pair is present.
func (c *Config) WebPushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
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
		return value
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

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
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
