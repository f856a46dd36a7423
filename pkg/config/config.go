package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	xdgAppName = "taskflow"
	configFile = "config.json"

	DefaultAPIURL   = "http://localhost:8080"
	DefaultCalendar = "Tasks"
	DefaultLogLevel = "warn"
)

// Config is the persisted client configuration. Environment variables
// override file values; flags override both (applied by the caller).
type Config struct {
	APIURL   string `json:"api_url" env:"TASKFLOW_API_URL"`
	Calendar string `json:"calendar" env:"TASKFLOW_CALENDAR"`
	PhotoDir string `json:"photo_dir,omitempty" env:"TASKFLOW_PHOTO_DIR"`
	LogLevel string `json:"log_level,omitempty" env:"TASKFLOW_LOG_LEVEL"`
}

// Dir returns the directory holding configuration and local state.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file (if any), then a .env file in the working
// directory (if any), then the environment.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads path; a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Calendar == "" {
		c.Calendar = DefaultCalendar
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.PhotoDir == "" {
		if dir, err := Dir(); err == nil {
			c.PhotoDir = filepath.Join(dir, "photos")
		}
	}
}

// SaveFile writes cfg to path, creating the directory if needed.
func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
