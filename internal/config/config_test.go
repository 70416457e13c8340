package config_test

import (
	"testing"

	"marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "marketplace.orders", cfg.KafkaTopic)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=marketplace sslmode=disable", cfg.DSN())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE", "memory")
	t.Setenv("APP_ENV", "PROD")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("SHIPPING_FLAT_FEE", "300")
	t.Setenv("TAX_RATE_BPS", "1000")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DSN())
	assert.Equal(t, int64(300), cfg.ShippingFlatFee)
	assert.Equal(t, int64(1000), cfg.TaxRateBPS)
}

func TestValidate(t *testing.T) {
	base := config.Config{Store: config.StorePostgres, JWTSecret: "x"}
	assert.NoError(t, base.Validate())

	bad := base
	bad.JWTSecret = " "
	assert.Error(t, bad.Validate())

	bad = base
	bad.Store = "redis"
	assert.Error(t, bad.Validate())

	bad = base
	bad.TaxRateBPS = 10001
	assert.Error(t, bad.Validate())

	bad = base
	bad.ShippingFlatFee = -1
	assert.Error(t, bad.Validate())
}
