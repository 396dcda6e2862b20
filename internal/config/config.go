// Package config provides persistent configuration for jadwal-waybar.
//
// Configuration is stored as JSON at ~/.config/jadwal-waybar/config.json
// (XDG-compliant). A .env file in the working directory or the config
// directory may set JADWAL_* variables. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/prayer"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/waybar"
)

const (
	configDirName  = "jadwal-waybar"
	configFileName = "config.json"
	envFileName    = ".env"

	// EnvPrefix is prepended to the upper-cased key, e.g. JADWAL_CITY_INDEX.
	EnvPrefix = "JADWAL_"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "city_index",
	"lang", "format",
	"cache_file",
	"api_url", "timeout",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	City      string `json:"city,omitempty"`
	CityIndex *int   `json:"city_index,omitempty"` // pointer so we can distinguish "not set" from 0
	Lang      string `json:"lang,omitempty"`       // "en" or "id"
	Format    string `json:"format,omitempty"`     // named format or Go template
	CacheFile string `json:"cache_file,omitempty"`
	APIURL    string `json:"api_url,omitempty"`
	Timeout   string `json:"timeout,omitempty"` // Go duration, e.g. "10s"
	LogLevel  string `json:"log_level,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	index := -1
	return Config{
		CityIndex: &index,
		Lang:      waybar.LangEnglish,
		Format:    prayer.FormatNameAndTime,
		Timeout:   "10s",
		LogLevel:  "warn",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk and applies JADWAL_* overrides from
// the environment, after loading .env files.
// If the file does not exist, the result only holds environment values.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if err := LoadEnvFiles(envFileName, filepath.Join(filepath.Dir(path), envFileName)); err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the config from a specific file path.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are skipped, and variables that are already
// set are left alone.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides config values with non-empty JADWAL_* variables.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok || v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "city_index":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid city_index %q: must be an integer", value)
		}
		if v < -1 {
			return fmt.Errorf("invalid city_index %q: must be -1 (none) or greater", value)
		}
		c.CityIndex = &v
	case "lang":
		if !waybar.ValidLang(value) {
			return fmt.Errorf("invalid lang %q: must be %q or %q", value, waybar.LangEnglish, waybar.LangIndonesian)
		}
		c.Lang = value
	case "format":
		if !prayer.ValidFormat(value) {
			return fmt.Errorf("invalid format %q: must be one of %s, or a Go template",
				value, strings.Join(prayer.Formats, ", "))
		}
		c.Format = value
	case "cache_file":
		c.CacheFile = value
	case "api_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("invalid api_url %q: must start with http:// or https://", value)
		}
		c.APIURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: must be a duration such as 10s", value)
		}
		if d <= 0 {
			return fmt.Errorf("invalid timeout %q: must be positive", value)
		}
		c.Timeout = value
	case "log_level":
		if _, err := zerolog.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", value, err)
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "city_index":
		if c.CityIndex == nil {
			return "", nil
		}
		return strconv.Itoa(*c.CityIndex), nil
	case "lang":
		return c.Lang, nil
	case "format":
		return c.Format, nil
	case "cache_file":
		return c.CacheFile, nil
	case "api_url":
		return c.APIURL, nil
	case "timeout":
		return c.Timeout, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// CityIndexOrDefault returns the city index, falling back to the given default.
func (c *Config) CityIndexOrDefault(def int) int {
	if c.CityIndex != nil {
		return *c.CityIndex
	}
	return def
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (c *Config) TimeoutDuration(def time.Duration) time.Duration {
	if c.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
