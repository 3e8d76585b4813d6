package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("USAGE_STORE", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, UsageStorePostgres, cfg.UsageStore)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USAGE_STORE", "mongo")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, UsageStoreMongo, cfg.UsageStore)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoad_UnknownUsageStore(t *testing.T) {
	t.Setenv("USAGE_STORE", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}
