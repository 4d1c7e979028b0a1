package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, CacheHybrid, cfg.CacheStrategy)
	assert.Equal(t, RepositorySQLite, cfg.RepositoryType)
	assert.Equal(t, 60, cfg.RateLimitRPM["default"])
}

func TestValidateRejectsUnknownCacheStrategy(t *testing.T) {
	cfg := Default()
	cfg.CacheStrategy = "bogus"
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsUnknownRepositoryType(t *testing.T) {
	cfg := Default()
	cfg.RepositoryType = "bogus"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := Default()
	cfg.APITimeout = 0
	require.Error(t, cfg.Validate())
}
