package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "messenger.events", cfg.AMQPExchange)
	assert.Equal(t, int64(10485760), cfg.MaxUploadSize)
	assert.False(t, cfg.DebugRoutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9001")
	t.Setenv("DEBUG_ROUTES", "true")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Port)
	assert.True(t, cfg.DebugRoutes)
	assert.Equal(t, int64(1024), cfg.MaxUploadSize)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
