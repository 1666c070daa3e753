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
	t.Setenv("FOOTNOTE_ENGINE", "")
	t.Setenv("FOOTNOTE_FORMATTER", "")
	t.Setenv("FOOTNOTE_LOG_LEVEL", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Footnote", cfg.Engine)
	assert.Equal(t, "patchedFn", cfg.Canonical)
	assert.Equal(t, "printf", cfg.Formatter.Kind)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	cfg := DefaultConfig()
	cfg.Engine = "Trace"
	cfg.Formatter.Kind = "zap"
	cfg.Formatter.Prefixes = []string{"debug"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Trace", loaded.Engine)
	assert.Equal(t, "zap", loaded.Formatter.Kind)
	assert.Equal(t, []string{"debug"}, loaded.Formatter.Prefixes)
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("engine: Log\nwatch:\n  debounce: 1s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Log", cfg.Engine)
	assert.Equal(t, "patchedFn", cfg.Canonical)
	assert.Equal(t, time.Second, cfg.GetWatchDebounce())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("engine: [unterminated"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad engine", func(c *Config) { c.Engine = "my engine" }, "invalid engine name"},
		{"bad canonical", func(c *Config) { c.Canonical = "1fn" }, "invalid canonical name"},
		{"keyword canonical", func(c *Config) { c.Canonical = "func" }, "invalid canonical name"},
		{"bad formatter", func(c *Config) { c.Formatter.Kind = "xml" }, "invalid formatter"},
		{"bad writer var", func(c *Config) { c.Formatter.WriterVar = "out-put" }, "invalid writer_var"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestWatchDebounceFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch.Debounce = "soon"
	assert.Equal(t, 300*time.Millisecond, cfg.GetWatchDebounce())
}

func TestLoggingCategories(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("binder"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("binder"))

	lc.Categories = map[string]bool{"binder": false}
	assert.False(t, lc.IsCategoryEnabled("binder"))
	assert.True(t, lc.IsCategoryEnabled("spread"))

	assert.Nil(t, lc.Outputs())
	lc.File = "footnote.log"
	assert.Equal(t, []string{"footnote.log"}, lc.Outputs())
}
