package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "TLS_CERT", "TLS_KEY", "HTTP_ADDR", "DATABASE_PATH", "UPLOADS_DIR", "HISTORY_LIMIT", "JWT_SECRET", "RETENTION_DAYS", "RETENTION_SCHEDULE"} {
		t.Setenv(key, "") // register restore
		os.Unsetenv(key)
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8765", cfg.ListenAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./chatrelay.db", cfg.DatabasePath)
	assert.Equal(t, "./uploads", cfg.UploadsDir)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 0, cfg.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.RetentionSchedule)
	assert.Empty(t, cfg.TLSCert)
	assert.NotEmpty(t, cfg.JWTSecret, "a random secret is generated when unset")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("RETENTION_DAYS", "14")
	t.Setenv("JWT_SECRET", "fixed")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 14, cfg.RetentionDays)
	assert.Equal(t, "fixed", cfg.JWTSecret)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "many")
	_, err := config.Load()
	require.Error(t, err)
}
