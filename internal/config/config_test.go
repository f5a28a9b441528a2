package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvBaseURL, "")
	// keep a stray .env in the package directory out of the way
	// (os.Chdir + Cleanup is the pre-Go-1.24 equivalent of t.Chdir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	home := setupHome(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.ActiveProfile)
	assert.Equal(t, DefaultBaseURL, cfg.GetBaseURL())
	assert.Empty(t, cfg.GetUsername())
	assert.True(t, cfg.IsValid())
	assert.FileExists(t, filepath.Join(home, dirName, "config.json"))
}

func TestBaseURLOverrideIsNotSaved(t *testing.T) {
	home := setupHome(t)
	t.Setenv(EnvBaseURL, "https://chat.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.GetBaseURL())
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(filepath.Join(home, dirName, "config.json"))
	require.NoError(t, err)
	var saved Config
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, DefaultBaseURL, saved.Profiles["default"].BaseURL)
}

func TestDotEnvIsApplied(t *testing.T) {
	setupHome(t)
	require.NoError(t, os.WriteFile(".env", []byte(EnvBaseURL+"=https://from-dotenv.example.com\n"), 0600))
	// godotenv never overrides a variable that is already set
	require.NoError(t, os.Unsetenv(EnvBaseURL))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://from-dotenv.example.com", cfg.GetBaseURL())
	require.NoError(t, os.Unsetenv(EnvBaseURL))
}

func TestSetActive(t *testing.T) {
	setupHome(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Profiles["staging"] = Profile{BaseURL: "https://staging.example.com", Username: "bob"}
	require.NoError(t, cfg.SetActive("staging"))
	assert.Error(t, cfg.SetActive("missing"))

	reloaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", reloaded.ActiveProfile)
	assert.Equal(t, "https://staging.example.com", reloaded.GetBaseURL())
	assert.Equal(t, "bob", reloaded.GetUsername())
}

func TestMissingActiveProfileFallsBack(t *testing.T) {
	home := setupHome(t)
	dir := filepath.Join(home, dirName)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"profiles": {"default": {"base_url": "http://a.example.com"}, "other": {"base_url": "http://b.example.com"}},
		"active_profile": "gone"
	}`), 0600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.ActiveProfile)
	assert.Equal(t, "http://a.example.com", cfg.GetBaseURL())
}

func TestNoProfilesIsAnError(t *testing.T) {
	home := setupHome(t)
	dir := filepath.Join(home, dirName)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"profiles": {}}`), 0600))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSessionPathFor(t *testing.T) {
	home := setupHome(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	path, err := cfg.SessionPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, dirName, "sessions", "default.json"), path)

	path, err = SessionPathFor("staging")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, dirName, "sessions", "staging.json"), path)
}

func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("http://localhost:5001"))
	assert.NoError(t, ValidateBaseURL("https://chat.example.com/api"))
	assert.Error(t, ValidateBaseURL("ftp://chat.example.com"))
	assert.Error(t, ValidateBaseURL("chat.example.com"))
	assert.Error(t, ValidateBaseURL("http://"))
	assert.Error(t, ValidateBaseURL("::"))
}
