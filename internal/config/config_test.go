package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerConfig_Defaults(t *testing.T) {
	cfg, err := NewServerConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.FullRefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.ConsolidateInterval)
	assert.Equal(t, "bsc", cfg.GeckoNetwork)
}

func TestNewServerConfig_FlagsAndEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MARKET_INTERVAL", "90s")
	t.Setenv("UPSTREAM_RPS", "0.5")
	t.Setenv("MORALIS_API_KEY", "secret")

	cfg, err := NewServerConfig([]string{"-a", ":9090", "-r", "ignored:1", "-consolidate-interval", "1m"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address)
	// environment wins over flags
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.ConsolidateInterval)
	assert.Equal(t, 90*time.Second, cfg.MarketInterval)
	assert.Equal(t, 0.5, cfg.UpstreamRPS)
	assert.Equal(t, "secret", cfg.MoralisAPIKey)
}

func TestNewServerConfig_InvalidEnv(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	_, err := NewServerConfig(nil)
	assert.Error(t, err)
}
