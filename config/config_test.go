package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	absDot, err := filepath.Abs(".")
	require.NoError(t, err)

	assert.Equal(t, absDot, cfg.RootDirectory)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.TagTimeout)
	assert.Equal(t, 2*time.Second, cfg.TagRetryBackoff)
	assert.Equal(t, 1, cfg.TagWorkers)
	assert.Equal(t, 0, cfg.TagBatchLimit)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("TAG_TIMEOUT", "15s")
	t.Setenv("TAG_WORKERS", "4")
	t.Setenv("TAG_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.False(t, cfg.MockMode())
	assert.Equal(t, 15*time.Second, cfg.TagTimeout)
	assert.Equal(t, 4, cfg.TagWorkers)
	assert.InDelta(t, 0.5, cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TAG_TIMEOUT", "soon")
	t.Setenv("TAG_WORKERS", "-2")
	t.Setenv("TAG_MAX_IMAGE_SIZE", "0")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.MockMode())
	assert.Equal(t, defaultTagTimeout, cfg.TagTimeout)
	assert.Equal(t, defaultTagWorkers, cfg.TagWorkers)
	assert.Equal(t, defaultTagMaxImageSize, cfg.TagMaxImageSize)
}
