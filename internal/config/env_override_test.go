package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("RUSTMD_STYLE sets render style", func(t *testing.T) {
		t.Setenv("RUSTMD_STYLE", "dracula")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "dracula", cfg.Render.Style)
	})

	t.Run("RUSTMD_LOG_LEVEL sets logging level", func(t *testing.T) {
		t.Setenv("RUSTMD_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("RUSTMD_DEBOUNCE sets debounce", func(t *testing.T) {
		t.Setenv("RUSTMD_DEBOUNCE", "300ms")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 300*time.Millisecond, cfg.GetDebounce())
	})

	t.Run("empty variables leave values alone", func(t *testing.T) {
		t.Setenv("RUSTMD_STYLE", "")
		t.Setenv("RUSTMD_LOG_LEVEL", "")
		t.Setenv("RUSTMD_DEBOUNCE", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestEnvOverrides_WinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  style: monokai\nlogging:\n  level: warn\n"), 0644))

	t.Setenv("RUSTMD_STYLE", "github")
	t.Setenv("RUSTMD_LOG_LEVEL", "")
	t.Setenv("RUSTMD_DEBOUNCE", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "github", cfg.Render.Style)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrides_InvalidLevelRejected(t *testing.T) {
	t.Setenv("RUSTMD_LOG_LEVEL", "loud")
	t.Setenv("RUSTMD_STYLE", "")
	t.Setenv("RUSTMD_DEBOUNCE", "")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "invalid logging.level")
}
