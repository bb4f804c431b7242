package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipshop/internal/domain"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STATE_BACKEND", "ORDER_TIMEOUT_SECONDS", "VAT_RATE", "MAX_HARDWARE_QTY", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StateMemory, cfg.StateBackend)
	assert.Equal(t, 15*time.Second, cfg.OrderTimeout)
	assert.Equal(t, 20*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.MaxHardwareQty)
	assert.True(t, cfg.Billing.VATRate.Equal(decimal.RequireFromString("0.15")))
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STATE_BACKEND", "Redis")
	t.Setenv("STATE_TTL_HOURS", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example, ,https://www.shop.example")
	t.Setenv("EXTENSION_FEE_MONTHLY", "70.50")
	t.Setenv("CALL_BUNDLE_MINUTES", "500")
	t.Setenv("MAX_HARDWARE_QTY", "9")
	t.Setenv("PLATFORM_FEE_MONTHLY", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, StateRedis, cfg.StateBackend)
	assert.Equal(t, 2*time.Hour, cfg.StateTTL)
	assert.Equal(t, []string{"https://shop.example", "https://www.shop.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Billing.PerExtensionFeeMonthly.Equal(decimal.RequireFromString("70.5")))
	assert.Equal(t, 500, cfg.Billing.CallBundleMinutes)
	assert.Equal(t, 9, cfg.MaxHardwareQty)
	assert.True(t, cfg.Billing.PlatformFeeMonthly.Equal(decimal.NewFromInt(150)), "bad values keep the default")
	assert.False(t, cfg.NeedsDB())
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := FromEnv()
	cfg.StateBackend = "etcd"
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrInvalidInput))

	cfg = FromEnv()
	cfg.CatalogSource = "s3"
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrInvalidInput))

	cfg = FromEnv()
	cfg.Billing.VATRate = decimal.NewFromInt(2)
	assert.Error(t, cfg.Validate())
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VOIPSHOP_TEST_MARKER=from-file\nCATALOG_SOURCE=postgres\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("VOIPSHOP_TEST_MARKER", "")
	os.Unsetenv("VOIPSHOP_TEST_MARKER")
	t.Setenv("CATALOG_SOURCE", "")
	os.Unsetenv("CATALOG_SOURCE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("VOIPSHOP_TEST_MARKER"))
	assert.Equal(t, CatalogPostgres, cfg.CatalogSource)
	assert.True(t, cfg.NeedsDB())
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	_, err := Load()
	require.NoError(t, err)
}
