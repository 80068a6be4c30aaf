package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default OAuth endpoints and scope set. Scopes match what the navigator
// surfaces need: notifications, repository listings, and the user's email.
var defaultScopes = []string{"notifications", "public_repo", "repo", "user:email"}

const (
	defaultAPIEndpoint  = "https://api.github.com"
	defaultAuthURL      = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
	defaultRedirectAddr = "127.0.0.1:8917"
	defaultCallbackPath = "/callback"
)

// UserConfig is the CLI configuration. OAuth client credentials are loaded
// from the environment only and never persisted to disk.
type UserConfig struct {
	APIEndpoint   string `json:"api_endpoint"`
	AuthURL       string `json:"auth_url"`
	TokenURL      string `json:"token_url"`
	RedirectAddr  string `json:"redirect_addr"`
	CallbackPath  string `json:"callback_path"`
	LogLevel      string `json:"log_level"`
	ConfigVersion string `json:"config_version"`

	// OAuth app credentials (environment only, never saved to disk)
	ClientID     string   `json:"-"`
	ClientSecret string   `json:"-"`
	Scopes       []string `json:"-"`
}

// DefaultConfig returns the default configuration with environment
// overrides applied.
func DefaultConfig() *UserConfig {
	apiEndpoint := defaultAPIEndpoint
	if endpoint := os.Getenv("GHNAV_API_ENDPOINT"); endpoint != "" {
		apiEndpoint = endpoint
	}

	authURL := defaultAuthURL
	if v := os.Getenv("GHNAV_AUTH_URL"); v != "" {
		authURL = v
	}
	tokenURL := defaultTokenURL
	if v := os.Getenv("GHNAV_TOKEN_URL"); v != "" {
		tokenURL = v
	}

	return &UserConfig{
		APIEndpoint:   apiEndpoint,
		AuthURL:       authURL,
		TokenURL:      tokenURL,
		RedirectAddr:  defaultRedirectAddr,
		CallbackPath:  defaultCallbackPath,
		LogLevel:      "info",
		ConfigVersion: "1.0",
		ClientID:      os.Getenv("GHNAV_CLIENT_ID"),
		ClientSecret:  os.Getenv("GHNAV_CLIENT_SECRET"),
		Scopes:        defaultScopes,
	}
}

// Load loads the configuration from disk, or returns the default if no
// config file exists.
func Load() (*UserConfig, error) {
	configFile := GetConfigFile()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Environment always wins over the file, credentials included.
	if v := os.Getenv("GHNAV_API_ENDPOINT"); v != "" {
		config.APIEndpoint = v
	}
	if v := os.Getenv("GHNAV_AUTH_URL"); v != "" {
		config.AuthURL = v
	}
	if v := os.Getenv("GHNAV_TOKEN_URL"); v != "" {
		config.TokenURL = v
	}
	config.ClientID = os.Getenv("GHNAV_CLIENT_ID")
	config.ClientSecret = os.Getenv("GHNAV_CLIENT_SECRET")
	if len(config.Scopes) == 0 {
		config.Scopes = defaultScopes
	}

	return config, nil
}

// Save saves the configuration to disk with an atomic write.
func (c *UserConfig) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configFile := GetConfigFile()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	tempFile := configFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tempFile, configFile); err != nil {
		os.Remove(tempFile)
		return err
	}

	return nil
}

// Validate checks the non-credential parts of the configuration.
// Credential presence is checked by the OAuth flow so it can surface the
// failure through the auth error taxonomy.
func (c *UserConfig) Validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("api_endpoint must not be empty")
	}
	if c.AuthURL == "" || c.TokenURL == "" {
		return fmt.Errorf("oauth endpoints must not be empty")
	}
	if c.RedirectAddr == "" || c.CallbackPath == "" {
		return fmt.Errorf("redirect address and callback path must not be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	return nil
}

// RedirectURI returns the redirect URI the OAuth app must be registered
// with.
func (c *UserConfig) RedirectURI() string {
	return "http://" + c.RedirectAddr + c.CallbackPath
}
