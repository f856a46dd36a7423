package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultCalendar, cfg.Calendar)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	require.NoError(t, SaveFile(path, &Config{APIURL: "https://tasks.example.com", Calendar: "Work"}))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.APIURL)
	assert.Equal(t, "Work", cfg.Calendar)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, SaveFile(filepath.Join(home, ".config", xdgAppName, configFile), &Config{APIURL: "https://file.example.com", Calendar: "Work"}))

	t.Setenv("TASKFLOW_API_URL", "https://env.example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, "Work", cfg.Calendar)
	assert.Equal(t, filepath.Join(home, ".config", xdgAppName, "photos"), cfg.PhotoDir)
}
