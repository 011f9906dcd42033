package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where rustmd looks for its configuration file.
const DefaultPath = ".rustmd/config.yaml"

// Config holds all rustmd configuration.
type Config struct {
	// Rendering
	Render RenderConfig `yaml:"render"`

	// File watching / live preview
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig configures document rendering.
type RenderConfig struct {
	Format      string `yaml:"format"`       // html, page, terminal
	Style       string `yaml:"style"`        // chroma style for HTML output
	TermStyle   string `yaml:"term_style"`   // glamour style: auto, dark, light, notty
	WordWrap    int    `yaml:"word_wrap"`    // terminal word wrap width
	DebugColors bool   `yaml:"debug_colors"` // tint layout blocks
	Concurrency int    `yaml:"concurrency"`  // files rendered in parallel
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"` // quiet period before re-rendering
}

// Formats accepted by RenderConfig.Format.
var Formats = []string{"html", "page", "terminal"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Format:      "page",
			Style:       "nord",
			TermStyle:   "auto",
			WordWrap:    80,
			Concurrency: 4,
		},
		Watch: WatchConfig{
			// Matches the editor refresh delay of the original preview.
			Debounce: "1s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if style := os.Getenv("RUSTMD_STYLE"); style != "" {
		c.Render.Style = style
	}
	if level := os.Getenv("RUSTMD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if d := os.Getenv("RUSTMD_DEBOUNCE"); d != "" {
		c.Watch.Debounce = d
	}
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if !validFormat(c.Render.Format) {
		return fmt.Errorf("invalid render.format %q: want one of %v", c.Render.Format, Formats)
	}
	if c.Render.Concurrency <= 0 {
		return fmt.Errorf("render.concurrency must be positive, got %d", c.Render.Concurrency)
	}
	if c.Render.WordWrap < 0 {
		return fmt.Errorf("render.word_wrap must not be negative, got %d", c.Render.WordWrap)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}
