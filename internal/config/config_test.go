package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("GHNAV_CLIENT_ID", "")
	t.Setenv("GHNAV_CLIENT_SECRET", "")
	t.Setenv("GHNAV_API_ENDPOINT", "")

	cfg := DefaultConfig()
	assert.Equal(t, "https://api.github.com", cfg.APIEndpoint)
	assert.Equal(t, "https://github.com/login/oauth/authorize", cfg.AuthURL)
	assert.Equal(t, "https://github.com/login/oauth/access_token", cfg.TokenURL)
	assert.Equal(t, "127.0.0.1:8917", cfg.RedirectAddr)
	assert.Equal(t, "/callback", cfg.CallbackPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.Scopes, "repo")
	assert.Empty(t, cfg.ClientID)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GHNAV_API_ENDPOINT", "https://github.example/api/v3")
	t.Setenv("GHNAV_CLIENT_ID", "env-client-id")
	t.Setenv("GHNAV_CLIENT_SECRET", "env-secret")

	cfg := DefaultConfig()
	assert.Equal(t, "https://github.example/api/v3", cfg.APIEndpoint)
	assert.Equal(t, "env-client-id", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.ClientSecret)
}

func TestLoadReturnsDefaultsWhenNoFile(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com", cfg.APIEndpoint)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolateConfig(t)
	t.Setenv("GHNAV_CLIENT_ID", "env-client-id")
	t.Setenv("GHNAV_API_ENDPOINT", "")

	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.ClientID = "should-not-persist"
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, "env-client-id", loaded.ClientID,
		"credentials come from the environment, not the file")

	// The secret fields must not be written to disk.
	data, err := os.ReadFile(GetConfigFile())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should-not-persist")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.APIEndpoint = ""
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.LogLevel = "verbose"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.CallbackPath = ""
	assert.Error(t, bad.Validate())
}

func TestRedirectURI(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://127.0.0.1:8917/callback", cfg.RedirectURI())
}

func TestPathsAreNamespaced(t *testing.T) {
	isolateConfig(t)

	assert.Equal(t, filepath.Join(GetConfigDir(), "config.json"), GetConfigFile())
	assert.Contains(t, GetConfigDir(), "ghnav")
	assert.Contains(t, GetProfileCacheDir(), "profiles")
	assert.Contains(t, GetLogsDir(), "logs")
}
