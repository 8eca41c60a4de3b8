package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Default().ServerURL, cfg.ServerURL)
	assert.Equal(t, "general", cfg.Mode)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	want := &Config{
		ServerURL: "http://bot.example.com:8080",
		Mode:      "creative",
		ExportDir: "/tmp/exports",
	}
	require.NoError(t, SaveTo(path, want))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, want.ServerURL, got.ServerURL)
	assert.Equal(t, want.Mode, got.Mode)
	assert.Equal(t, want.ExportDir, got.ExportDir)
}

func TestLoadFromRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestQuickRepliesDefaults(t *testing.T) {
	got, err := LoadQuickRepliesFrom(filepath.Join(t.TempDir(), "quickreplies.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultQuickReplies, got)
}

func TestQuickRepliesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickreplies.yaml")
	content := "replies:\n  - Ping the server\n  - Draft an email\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := LoadQuickRepliesFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ping the server", "Draft an email"}, got)
}

func TestWatcherSeesConfigChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, SaveTo(path, Default()))

	var mu sync.Mutex
	var seen *Config
	w, err := Watch(path, func(cfg *Config) {
		mu.Lock()
		seen = cfg
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	updated := Default()
	updated.Mode = "precise"
	require.NoError(t, SaveTo(path, updated))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen != nil && seen.Mode == "precise"
	}, 3*time.Second, 20*time.Millisecond)
}
