package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pediae/backend-pediae/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"SUPABASE_URL":              "https://abc.supabase.co",
		"SUPABASE_SERVICE_ROLE_KEY": "service-key",
		"SUPABASE_DB_URL":           "",
		"PUSH_PROVIDER":             "",
		"CURRENCY_CODE":             "",
		"PORT":                      "",
		"SUMUP_CLIENT_ID":           "",
		"SUMUP_CLIENT_SECRET":       "",
		"SUMUP_MERCHANT_CODE":       "",
		"SUMUP_BASE_URL":            "",
		"VAPID_PUBLIC_KEY":          "",
		"VAPID_PRIVATE_KEY":         "",
		"HTTP_CLIENT_TIMEOUT":       "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "BRL", cfg.CurrencyCode)
	require.Equal(t, "webpush", cfg.PushProvider)
	require.Equal(t, "https://api.sumup.com", cfg.SumUpBaseURL)
	require.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	require.False(t, cfg.SumUpConfigured())
	require.False(t, cfg.WebPushConfigured())
}

func TestLoadRequiresSupabase(t *testing.T) {
	env := baseEnv()
	env["SUPABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["SUPABASE_SERVICE_ROLE_KEY"] = ""
	_, err = config.LoadForTests(env)
	require.Error(t, err)

	// A direct database URL replaces both REST settings.
	env = baseEnv()
	env["SUPABASE_URL"] = ""
	env["SUPABASE_SERVICE_ROLE_KEY"] = ""
	env["SUPABASE_DB_URL"] = "postgres://postgres:pw@db.abc.supabase.co:5432/postgres"
	_, err = config.LoadForTests(env)
	require.NoError(t, err)
}

func TestLoadRejectsUnknownPushProvider(t *testing.T) {
	env := baseEnv()
	env["PUSH_PROVIDER"] = "carrier-pigeon"
	_, err := config.LoadForTests(env)
	require.Error(t, err)
}

func TestProviderChecks(t *testing.T) {
	env := baseEnv()
	env["SUMUP_CLIENT_ID"] = "id"
	env["SUMUP_CLIENT_SECRET"] = "secret"
	env["SUMUP_MERCHANT_CODE"] = "M123"
	env["VAPID_PUBLIC_KEY"] = "pub"
	env["VAPID_PRIVATE_KEY"] = "priv"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.SumUpConfigured())
	require.True(t, cfg.WebPushConfigured())
}
