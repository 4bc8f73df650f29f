package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 30, cfg.InvoiceDueDays)
	assert.InDelta(t, 25.0, cfg.LaborHourCost, 0.001)
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := &Config{Env: "production", DBDriver: "postgres"}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{Env: "development", DBDriver: "mysql"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeLaborCost(t *testing.T) {
	cfg := &Config{Env: "development", DBDriver: "sqlite", LaborHourCost: -1}
	assert.Error(t, cfg.Validate())
}

func TestOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}
