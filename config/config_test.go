// uniqueizer/config/config_test.go
package config_test // Use an external test package

import (
	"testing"
	"time"

	"uniqueizer/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Ensure no env vars are lingering from other tests
		t.Setenv("UNIQUEIZER_PORT", "")
		t.Setenv("UNIQUEIZER_MAX_COPIES", "")
		t.Setenv("UNIQUEIZER_MAX_CONCURRENCY", "")
		t.Setenv("UNIQUEIZER_RETENTION_AGE", "")
		t.Setenv("UNIQUEIZER_MAX_UPLOAD_SIZE", "")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "8000", cfg.Port)
		assert.Equal(t, "ffmpeg", cfg.FFBin)
		assert.Equal(t, 100, cfg.MaxCopies)
		assert.Equal(t, 2, cfg.MaxConcurrency)
		assert.Equal(t, false, cfg.AuthEnable)
		assert.Equal(t, 24*time.Hour, cfg.RetentionAge)
		assert.Equal(t, time.Hour, cfg.CleanupInterval)
		assert.Equal(t, 100*time.Millisecond, cfg.CopyPause)
		assert.Equal(t, int64(10*1024*1024*1024), cfg.MaxUploadSize)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("UNIQUEIZER_PORT", "9999")
		t.Setenv("UNIQUEIZER_MAX_COPIES", "10")
		t.Setenv("UNIQUEIZER_AUTH_ENABLE", "true")
		t.Setenv("UNIQUEIZER_AUTH_KEY", "newsecret")
		t.Setenv("UNIQUEIZER_RETENTION_AGE", "2h30m")
		t.Setenv("UNIQUEIZER_MAX_UPLOAD_SIZE", "50MB")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 10, cfg.MaxCopies)
		assert.Equal(t, true, cfg.AuthEnable)
		assert.Equal(t, "newsecret", cfg.AuthKey)
		assert.Equal(t, 2*time.Hour+30*time.Minute, cfg.RetentionAge)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSize)
	})
}
