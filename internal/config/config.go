package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unusable values.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults applied by DefaultConfig and by flag-less CLI invocations.
const (
	DefaultName            = "rotlog"
	DefaultThreshold       = "10M"
	DefaultKeepLast        = 5
	DefaultRetryAttempts   = 2
	DefaultRetryBackoff    = 500 * time.Millisecond
	DefaultEncoding        = "utf-8"
	DefaultTimestampFormat = "2006-01-02 15:04:05"
)

type Config struct {
	Name            string `yaml:"name"`
	Directory       string `yaml:"directory"`
	Threshold       string `yaml:"threshold"`
	Archive         bool   `yaml:"archive"`
	Encoding        string `yaml:"encoding"`
	TimestampFormat string `yaml:"timestamp_format"`
	Raw             bool   `yaml:"raw"`
	ScratchDir      string `yaml:"scratch_dir"`
	Retention       struct {
		KeepLast int `yaml:"keep_last"`
	} `yaml:"retention"`
	Retry struct {
		Attempts int           `yaml:"attempts"`
		Backoff  time.Duration `yaml:"backoff"`
	} `yaml:"retry"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Diagnostics configures rotlog's own rotating diagnostics file.
type Diagnostics struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	cfg := &Config{
		Name:            DefaultName,
		Directory:       filepath.Join(home, ".rotlog", "logs"),
		Threshold:       DefaultThreshold,
		Archive:         true,
		Encoding:        DefaultEncoding,
		TimestampFormat: DefaultTimestampFormat,
		Diagnostics: Diagnostics{
			Path:       filepath.Join(home, ".rotlog", "rotlog.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
	cfg.Retention.KeepLast = DefaultKeepLast
	cfg.Retry.Attempts = DefaultRetryAttempts
	cfg.Retry.Backoff = DefaultRetryBackoff
	return cfg, nil
}

func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".rotlog", "config.yaml"), nil
}

// Load reads the config at path, or at ConfigPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to path, or to ConfigPath when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the core cannot act on. The threshold string is
// not checked: an unparseable threshold disables rotation.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidConfig)
	case strings.ContainsAny(c.Name, `/\`):
		return fmt.Errorf("%w: name %q contains a path separator", ErrInvalidConfig, c.Name)
	case c.Directory == "":
		return fmt.Errorf("%w: directory is empty", ErrInvalidConfig)
	case c.Retention.KeepLast < 1:
		return fmt.Errorf("%w: retention.keep_last must be at least 1, got %d", ErrInvalidConfig, c.Retention.KeepLast)
	case c.Retry.Attempts < 1:
		return fmt.Errorf("%w: retry.attempts must be at least 1, got %d", ErrInvalidConfig, c.Retry.Attempts)
	case c.Retry.Backoff < 0:
		return fmt.Errorf("%w: retry.backoff is negative", ErrInvalidConfig)
	}
	return nil
}

// LogDir returns the expanded log directory.
func (c *Config) LogDir() (string, error) {
	return ExpandPath(c.Directory)
}

// ScratchRoot returns the expanded scratch root, defaulting to <tmp>/rotlog.
func (c *Config) ScratchRoot() (string, error) {
	if c.ScratchDir == "" {
		return filepath.Join(os.TempDir(), "rotlog"), nil
	}
	return ExpandPath(c.ScratchDir)
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", path, err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
