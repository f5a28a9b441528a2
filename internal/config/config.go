package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:5001"

	EnvHome    = "RORITALK_HOME"
	EnvBaseURL = "RORITALK_BASE_URL"
	EnvDebug   = "RORITALK_DEBUG"

	dirName = ".roritalk"
)

// Profile is one backend the client can talk to.
type Profile struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username,omitempty"` // prefilled on the login form
}

type Config struct {
	Profiles       map[string]Profile `json:"profiles"`
	ActiveProfile  string             `json:"active_profile"`
	currentProfile *Profile
	baseURLEnv     string
}

// LoadConfig reads the profile file, creating a default one on first run. A .env file
// in the working directory is applied first; RORITALK_BASE_URL overrides the active
// profile's URL without being saved.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}
	config.baseURLEnv = strings.TrimSpace(os.Getenv(EnvBaseURL))

	return config, nil
}

func (c *Config) IsValid() bool {
	return ValidateBaseURL(c.GetBaseURL()) == nil
}

func (c *Config) GetBaseURL() string {
	if c.baseURLEnv != "" {
		return c.baseURLEnv
	}
	if c.currentProfile == nil || c.currentProfile.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.currentProfile.BaseURL
}

func (c *Config) GetUsername() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.Username
}

// SessionPath is where the active profile's cookies are kept between runs.
func (c *Config) SessionPath() (string, error) {
	return SessionPathFor(c.ActiveProfile)
}

func SessionPathFor(profile string) (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions", profile+".json"), nil
}

// SetActive switches to an existing profile and saves the choice.
func (c *Config) SetActive(name string) error {
	profile, ok := c.Profiles[name]
	if !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	c.currentProfile = &profile
	return c.Save()
}

// ValidateBaseURL accepts absolute http and https URLs.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func getConfigDir() (string, error) {
	var baseDir string

	// Use RORITALK_HOME if set, otherwise use user's home directory
	if home := os.Getenv(EnvHome); home != "" {
		baseDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = homeDir
	}

	return filepath.Join(baseDir, dirName), nil
}

func getConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0700)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {BaseURL: DefaultBaseURL},
		},
		ActiveProfile: "default",
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to any profile, preferring "default"
		name := "default"
		if _, ok := c.Profiles[name]; !ok {
			for n := range c.Profiles {
				name = n
				break
			}
		}
		c.ActiveProfile = name
		profile = c.Profiles[name]
	}

	c.currentProfile = &profile
	return nil
}
