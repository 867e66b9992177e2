package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/comicwalk/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	return filepath.Join(dir, "comicwalk")
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	isolate(t)

	cfg, src, err := config.LoadMerged(config.Options{Output: "out", EpisodeWorkers: 4})
	require.NoError(t, err)
	assert.Contains(t, src, "default config in memory")
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, 4, cfg.EpisodeWorkers)
	assert.Equal(t, 5, cfg.ImageWorkers)
	assert.Equal(t, 200, cfg.MaxSections)
	assert.True(t, cfg.Render.Headless)
}

func TestInitSwitchAndLoad(t *testing.T) {
	root := isolate(t)

	path, err := config.InitDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "configs", "Default.yaml"), path)

	_, err = config.InitDefaultConfig()
	assert.ErrorIs(t, err, os.ErrExist)

	fast, err := config.CreateEmptyConfig("fast")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fast, []byte("image_workers: 12\nrender:\n  settle_interval: 500ms\n"), 0644))

	require.NoError(t, config.SwitchConfig("fast"))

	cfg, src, err := config.LoadMerged(config.Options{ShowBrowser: true})
	require.NoError(t, err)
	assert.Equal(t, fast, src)
	assert.Equal(t, 12, cfg.ImageWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.Render.SettleInterval)
	assert.Equal(t, 5*time.Second, cfg.Render.ElementTimeout)
	assert.False(t, cfg.Render.Headless)

	list, err := config.ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.False(t, list[0].Active)
	assert.Equal(t, "fast", list[1].Label)
	assert.True(t, list[1].Active)
}

func TestSwitchRejectsUnknownAndInvalid(t *testing.T) {
	isolate(t)

	assert.Error(t, config.SwitchConfig("missing"))
	assert.ErrorIs(t, config.SwitchConfig("../etc"), config.ErrInvalidLabel)

	_, err := config.CreateEmptyConfig(" ")
	assert.ErrorIs(t, err, config.ErrInvalidLabel)
}

func TestIgnoreConfig(t *testing.T) {
	isolate(t)

	_, err := config.InitDefaultConfig()
	require.NoError(t, err)

	cfg, src, err := config.LoadMerged(config.Options{IgnoreConfig: true, Debug: true})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", src)
	assert.True(t, cfg.Debug)
}
