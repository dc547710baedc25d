package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH0_DOMAIN", "tenant.auth0.com")
	t.Setenv("AUTH0_CLIENT_ID", "client-id")
	t.Setenv("AUTH0_CLIENT_SECRET", "client-secret")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
}

func TestGetReportsEveryMissingVariable(t *testing.T) {
	t.Setenv("AUTH0_DOMAIN", "")
	t.Setenv("AUTH0_CLIENT_ID", "")
	t.Setenv("AUTH0_CLIENT_SECRET", "x")
	t.Setenv("AUTH0_AUDIENCE", "x")
	t.Setenv("MONGODB_URI", "")

	_, err := Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH0_DOMAIN")
	assert.Contains(t, err.Error(), "AUTH0_CLIENT_ID")
	assert.Contains(t, err.Error(), "MONGODB_URI")
	assert.NotContains(t, err.Error(), "AUTH0_CLIENT_SECRET")
}

func TestGetDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("DEVICE_LIMIT", "")
	t.Setenv("ENABLE_DEVICE_TRACKING", "")
	t.Setenv("ENABLE_FILE_UPLOAD", "")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 2, cfg.DeviceLimit)
	assert.Equal(t, "edu-platform", cfg.MongoDB)
	assert.Equal(t, "https://tenant.auth0.com/", cfg.Auth0Issuer)
	assert.True(t, cfg.EnableDeviceTracking)
	assert.True(t, cfg.EnableFileUpload)
}

func TestGetParsesOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DEVICE_LIMIT", "5")
	t.Setenv("AUTH0_ISSUER", "https://issuer.example.com/")
	t.Setenv("ENABLE_DEVICE_TRACKING", "false")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.DeviceLimit)
	assert.Equal(t, "https://issuer.example.com/", cfg.Auth0Issuer)
	assert.False(t, cfg.EnableDeviceTracking)
}

func TestGetFallsBackOnMalformedNumbers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("DEVICE_LIMIT", "0")

	cfg, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 2, cfg.DeviceLimit)
}

func TestValidateRejectsMalformedValues(t *testing.T) {
	setRequiredEnv(t)

	t.Run("domain without a dot", func(t *testing.T) {
		t.Setenv("AUTH0_DOMAIN", "localhost")
		_, err := Get()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH0_DOMAIN")
	})

	t.Run("non-mongo uri", func(t *testing.T) {
		t.Setenv("MONGODB_URI", "postgres://localhost:5432")
		_, err := Get()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MONGODB_URI")
	})
}
