// Package config provides YAML configuration loading and validation for the
// parley voice client.
//
// Configuration is layered: LoadConfig starts from DefaultConfig and lets the
// file override individual fields, so a config file only needs the settings
// that differ from the defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Valid audio device backends.
var validAudioBackends = map[string]bool{
	"miniaudio": true,
	"portaudio": true,
}

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Audio   AudioConfig   `yaml:"audio"`
	Session SessionConfig `yaml:"session"`
}

// BackendConfig points the client at the conversation backend.
type BackendConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AudioConfig selects the audio device backend and the local speech voice
// used when replies arrive without audio.
type AudioConfig struct {
	Backend string `yaml:"backend"`
	Voice   string `yaml:"voice"`
	Rate    int    `yaml:"rate"`
}

// SessionConfig controls where the session identity is persisted. An empty
// File resolves to a per-user default under the OS config directory.
type SessionConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults, suitable as
// the base layer for LoadConfig.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		Audio: AudioConfig{
			Backend: "miniaudio",
		},
	}
}

// LoadConfig loads and parses a YAML configuration file from the given path,
// layered over DefaultConfig. It returns an error if the file cannot be read
// or contains invalid YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := LoadConfigFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadConfigFromBytes parses YAML configuration from a byte slice, layered
// over DefaultConfig.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates a configuration for required fields and valid
// values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	parsed, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid backend.url %q: %w", cfg.Backend.URL, err)
	}
	if !parsed.IsAbs() {
		return fmt.Errorf("invalid backend.url %q: must be absolute", cfg.Backend.URL)
	}

	if cfg.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid backend.timeout_seconds %d: must not be negative", cfg.Backend.TimeoutSeconds)
	}

	if !validAudioBackends[cfg.Audio.Backend] {
		return fmt.Errorf("invalid audio.backend %q: must be one of miniaudio, portaudio", cfg.Audio.Backend)
	}

	return nil
}

// SessionFile returns the path the session identity is persisted at,
// resolving the per-user default when the config does not pin one.
func (c *Config) SessionFile() (string, error) {
	if c.Session.File != "" {
		return c.Session.File, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "parley", "session"), nil
}
