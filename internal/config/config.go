package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds defaults shared by storepush invocations.
type Config struct {
	// CredentialsFile is the path to the store credentials (service account JSON for Google Play).
	CredentialsFile string `yaml:"credentials_file"`
	// DefaultTrack is used when no track is given on the command line.
	DefaultTrack string `yaml:"default_track"`
	// Timeout bounds a whole publishing run. Zero means no deadline.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for storepush settings.
	DefaultConfigFilename = "storepush-settings.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned when the configured timeout is negative.
	errNegativeTimeout = errors.New("timeout must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file points at credential material.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Timeout < 0 {
		return errNegativeTimeout
	}

	if cfg.CredentialsFile == "" {
		return nil
	}

	if _, err := os.Stat(filepath.Clean(cfg.CredentialsFile)); err != nil {
		return fmt.Errorf("credentials file: %w", err)
	}

	return nil
}
