package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STORAGE_UPLOAD_LOCATION", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "uploads", cfg.Storage.UploadLocation)
	assert.Equal(t, 5*time.Minute, cfg.Redis.StatusCacheTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORAGE_UPLOAD_LOCATION", "/srv/uploads")
	t.Setenv("STORAGE_DOWNLOAD_LOCATION", "https://files.example.com")
	t.Setenv("STORAGE_CALENDAR_LINK", "https://calendar.example.com/changes")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("NOTIFY_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "/srv/uploads", cfg.Storage.UploadLocation)
	assert.Equal(t, "https://files.example.com", cfg.Storage.DownloadLocation)
	assert.Equal(t, "https://calendar.example.com/changes", cfg.Storage.CalendarLink)
	assert.True(t, cfg.Notification.Enabled())
	assert.Equal(t, 587, cfg.Notification.SMTPPort)
	assert.Equal(t, 2, cfg.Notification.Workers)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestRequestTimeout_Disabled(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
