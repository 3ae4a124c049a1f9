package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 8, cfg.ReserveConcurrency)
	assert.Equal(t, 15*time.Second, cfg.DemoInterval)
	assert.Empty(t, cfg.LogFile)
	assert.True(t, cfg.TaxRate.Equal(DefaultTaxRate))
	assert.True(t, cfg.ShippingFee.Equal(DefaultShippingFee))
	assert.True(t, cfg.FreeShippingThreshold.Equal(DefaultFreeShippingThreshold))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("TAX_RATE", "0.2")
	t.Setenv("SHIPPING_FEE", "12.5")
	t.Setenv("RESERVE_CONCURRENCY", "3")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("LOG_FILE", "/tmp/storefront.log")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "0.2", cfg.TaxRate.String())
	assert.Equal(t, "12.5", cfg.ShippingFee.String())
	assert.Equal(t, 3, cfg.ReserveConcurrency)
	assert.True(t, cfg.DemoMode)
	assert.Equal(t, "/tmp/storefront.log", cfg.LogFile)
}

func TestLoad_NonFiniteMoneyFallsBack(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf", "abc", "-1"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("TAX_RATE", raw)
			t.Setenv("FREE_SHIPPING_THRESHOLD", raw)

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			assert.True(t, cfg.TaxRate.Equal(DefaultTaxRate))
			assert.True(t, cfg.FreeShippingThreshold.Equal(DefaultFreeShippingThreshold))
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("JWT_SECRET") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_DevSecretOnlyInDevelopment(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("ENV", "production")
	_, err := Load(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "rotated-signing-key")
	cfg, err := Load(missing)
	require.NoError(t, err)
	assert.Equal(t, "rotated-signing-key", cfg.JWTSecret)

	t.Setenv("ENV", "local")
	t.Setenv("JWT_SECRET", DevJWTSecret)
	_, err = Load(missing)
	require.NoError(t, err)
}

func TestLoad_RejectsBlankSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "   ")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
