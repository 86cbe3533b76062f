package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T, dataDir string) {
	t.Helper()
	for _, key := range []string{"THEMES_FILE", "KEYWORDS_FILE", "LOG_LEVEL", "LOG_FILE", "WATCH_KEYWORDS"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
	t.Setenv(EnvPrefix+"_DATA_DIR", dataDir)
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		dir := t.TempDir()
		isolateEnv(t, dir)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.DataDir)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.WatchKeywords)
		assert.Empty(t, cfg.ConfigFile)
		assert.Equal(t, filepath.Join(dir, "theme_prompts.json"), cfg.ThemesPath())
		assert.Equal(t, filepath.Join(dir, "keyword_library.json"), cfg.KeywordsPath())
		assert.Equal(t, filepath.Join(dir, "prompt_genie.log"), cfg.LogPath())
	})

	t.Run("reads config.yaml from the data directory", func(t *testing.T) {
		dir := t.TempDir()
		isolateEnv(t, dir)

		content := "keywords_file: /srv/keywords.json\nlog_level: debug\nwatch_keywords: false\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte(content), 0644))

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, DefaultConfigName), cfg.ConfigFile)
		assert.Equal(t, "/srv/keywords.json", cfg.KeywordsPath())
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.False(t, cfg.WatchKeywords)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		dir := t.TempDir()
		isolateEnv(t, dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte("log_level: debug\n"), 0644))
		t.Setenv(EnvPrefix+"_LOG_LEVEL", "error")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	t.Run("explicit file that does not exist", func(t *testing.T) {
		dir := t.TempDir()
		isolateEnv(t, dir)

		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("rejects an unknown log level", func(t *testing.T) {
		dir := t.TempDir()
		isolateEnv(t, dir)
		t.Setenv(EnvPrefix+"_LOG_LEVEL", "loud")

		_, err := Load("")
		assert.ErrorContains(t, err, "log_level")
	})
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	isolateEnv(t, dir)
	path := filepath.Join(dir, "nested", DefaultConfigName)

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "existing file must not be replaced")
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.ThemesFile, cfg.ThemesFile)
	assert.Equal(t, defaults.KeywordsFile, cfg.KeywordsFile)
	assert.Equal(t, defaults.LogFile, cfg.LogFile)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestResolvePath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}

	assert.Equal(t, "/data/themes.json", cfg.ResolvePath("themes.json"))
	assert.Equal(t, "/abs/themes.json", cfg.ResolvePath("/abs/themes.json"))

	cfg.LogFile = ""
	assert.Empty(t, cfg.LogPath())
}
