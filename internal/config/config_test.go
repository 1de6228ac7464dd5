package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BEEFSTEAK_CONFIG", "PORT", "PUBLIC_URL", "DATABASE_URL", "IDENTITY_SECRET", "TELEGRAM_TOKEN",
		"REDIS_ADDR", "DIGEST_TIME", "COMPLETION_WINDOW_MINUTES", "REPORT_INTERVAL_HOURS",
		"EXPIRE_INTERVAL", "STATS_CACHE_TTL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 25*time.Minute, cfg.CompletionWindow)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "beefsteak.yaml")
	content := "listen_addr: \":8080\"\ndatabase_url: file.db\nidentity_secret: from-file\ncompletion_window: 30m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "9000")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("EXPIRE_INTERVAL", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "file.db", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.IdentitySecret)
	assert.Equal(t, 30*time.Minute, cfg.CompletionWindow)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Zero(t, cfg.ExpireInterval)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad completion window", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COMPLETION_WINDOW_MINUTES", "-3")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STATS_CACHE_TTL", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, 5*time.Hour, parseInterval("5"))
	assert.Equal(t, 90*time.Minute, parseInterval("1.5"))
	assert.Zero(t, parseInterval(""))
	assert.Zero(t, parseInterval("-1"))
	assert.Zero(t, parseInterval("abc"))
}
