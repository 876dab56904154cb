package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
	"gopkg.in/yaml.v3"
)

// Config represents the teapot configuration
type Config struct {
	BaseURL         string            `yaml:"baseURL,omitempty"`
	Timeout         int               `yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty"`
	AllowCellular   *bool             `yaml:"allowCellular,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"` // Default headers for all requests
	LogLevel        string            `yaml:"logLevel,omitempty"`
	Output          string            `yaml:"output,omitempty"` // console or json
	NoColor         *bool             `yaml:"noColor,omitempty"`
	Rate            float64           `yaml:"rate,omitempty"` // requests per second, 0 for unlimited
	Repeat          int               `yaml:"repeat,omitempty"`
	Fixtures        *Fixtures         `yaml:"fixtures,omitempty"`
}

// Fixtures configures the fixture-backed mock client.
type Fixtures struct {
	Dir             string            `yaml:"dir,omitempty"`
	Default         string            `yaml:"default,omitempty"`
	StatusCode      int               `yaml:"statusCode,omitempty"`
	Latency         int               `yaml:"latency,omitempty"` // milliseconds
	Schema          string            `yaml:"schema,omitempty"`
	Overrides       map[string]string `yaml:"overrides,omitempty"`
	ExpectedHeaders map[string]string `yaml:"expectedHeaders,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetAllowCellular returns the cellular setting, defaulting to true
func (c *Config) GetAllowCellular() bool {
	return getBool(c.AllowCellular, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// WireLevel parses LogLevel.
func (c *Config) WireLevel() (wirelog.Level, error) {
	return wirelog.ParseLevel(c.LogLevel)
}

// UsesFixtures reports whether calls should be answered from fixtures.
func (c *Config) UsesFixtures() bool {
	return c.Fixtures != nil && c.Fixtures.Dir != ""
}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	if _, err := c.WireLevel(); err != nil {
		return err
	}
	switch c.Output {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	if c.Fixtures != nil && c.Fixtures.StatusCode != 0 && (c.Fixtures.StatusCode < 100 || c.Fixtures.StatusCode > 599) {
		return fmt.Errorf("fixture status code %d is out of range", c.Fixtures.StatusCode)
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".teapot.yaml",
	".teapot.yml",
	"teapot.yaml",
	".teapot.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. JSON files
// are read by the same decoder.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.Repeat > 0 {
		result.Repeat = other.Repeat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.AllowCellular != nil {
		result.AllowCellular = other.AllowCellular
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if other.Fixtures != nil {
		result.Fixtures = result.Fixtures.merge(other.Fixtures)
	}

	return &result
}

func (f *Fixtures) merge(other *Fixtures) *Fixtures {
	result := Fixtures{}
	if f != nil {
		result = *f
	}

	if other.Dir != "" {
		result.Dir = other.Dir
	}
	if other.Default != "" {
		result.Default = other.Default
	}
	if other.StatusCode != 0 {
		result.StatusCode = other.StatusCode
	}
	if other.Latency > 0 {
		result.Latency = other.Latency
	}
	if other.Schema != "" {
		result.Schema = other.Schema
	}
	result.Overrides = mergeMaps(result.Overrides, other.Overrides)
	result.ExpectedHeaders = mergeMaps(result.ExpectedHeaders, other.ExpectedHeaders)

	return &result
}

func mergeMaps(base, other map[string]string) map[string]string {
	if len(other) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(other))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
