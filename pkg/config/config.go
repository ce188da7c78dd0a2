// Package config loads the xdfexport YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xdfexport/xdfexport-go/pkg/export"
)

// FileName is the config file looked up in the user config directory.
const FileName = "config.yaml"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the tool settings. Command-line flags override them.
type Config struct {
	// Formats are the default output formats.
	Formats []string `yaml:"formats"`

	// OutputDir receives outputs when no output path is given. Empty writes
	// next to the firmware image.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Workers is the resolver parallelism.
	Workers int `yaml:"workers"`

	// Categories restricts exports. Empty exports everything.
	Categories []string `yaml:"categories,omitempty"`

	// HistoryFile overrides the recent-files location.
	HistoryFile string `yaml:"history_file,omitempty"`

	// DefaultDir is the folder searched for definitions and images.
	DefaultDir string `yaml:"default_dir,omitempty"`

	Logging Logging `yaml:"logging"`
}

// Logging configures operational logs and the run event log.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`

	// EventLog is a CBOR run log file. Empty disables it.
	EventLog string `yaml:"event_log,omitempty"`
}

// LoadError reports a config file that could not be read or parsed.
type LoadError struct {
	File  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("config %s: %v", e.File, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Formats: []string{"txt"},
		Workers: 1,
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns <user config dir>/xdfexport/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "xdfexport", FileName), nil
}

// Load reads path over the defaults. A missing file is an error only when
// required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, &LoadError{File: path, Cause: err}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &LoadError{File: path, Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &LoadError{File: path, Cause: err}
	}
	return cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("%w: no formats", ErrInvalidConfig)
	}
	for _, f := range c.Formats {
		if _, err := export.Lookup(f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging format %q (want text or json)", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Marshal renders the settings as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
