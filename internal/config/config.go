// ABOUTME: Configuration loading and parsing for the lexdesk client stack
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete lexdesk client configuration
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Push        PushConfig        `yaml:"push"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BackendConfig holds the REST API endpoint configuration
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`

	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
}

// PushConfig holds the push channel endpoint and reconnect policy
type PushConfig struct {
	SocketURL  string `yaml:"socket_url"`
	MaxRetries int    `yaml:"max_retries"`

	MinBackoff time.Duration `yaml:"-"`
	MaxBackoff time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	MinBackoffRaw string `yaml:"min_backoff"`
	MaxBackoffRaw string `yaml:"max_backoff"`
}

// CredentialsConfig holds the local token store configuration
type CredentialsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the corresponding fields are absent.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMinBackoff     = 500 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second
	DefaultMaxRetries     = 10
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
	}

	if c.Push.SocketURL == "" {
		return fmt.Errorf("push.socket_url is required")
	}
	su, err := url.Parse(c.Push.SocketURL)
	if err != nil || su.Scheme == "" || su.Host == "" {
		return fmt.Errorf("push.socket_url %q is not a valid URL", c.Push.SocketURL)
	}

	if c.Credentials.Path == "" {
		return fmt.Errorf("credentials.path is required")
	}

	if c.Push.MinBackoff > c.Push.MaxBackoff {
		return fmt.Errorf("push.min_backoff must not exceed push.max_backoff")
	}
	if c.Push.MaxRetries < 0 {
		return fmt.Errorf("push.max_retries must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func (c *Config) parseDurations() error {
	var err error

	if c.Backend.RequestTimeoutRaw != "" {
		c.Backend.RequestTimeout, err = time.ParseDuration(c.Backend.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", c.Backend.RequestTimeoutRaw, err)
		}
	}

	if c.Push.MinBackoffRaw != "" {
		c.Push.MinBackoff, err = time.ParseDuration(c.Push.MinBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing min_backoff %q: %w", c.Push.MinBackoffRaw, err)
		}
	}

	if c.Push.MaxBackoffRaw != "" {
		c.Push.MaxBackoff, err = time.ParseDuration(c.Push.MaxBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing max_backoff %q: %w", c.Push.MaxBackoffRaw, err)
		}
	}

	return nil
}

// applyDefaults fills in unset timing fields
func (c *Config) applyDefaults() {
	if c.Backend.RequestTimeout == 0 {
		c.Backend.RequestTimeout = DefaultRequestTimeout
	}
	if c.Push.MinBackoff == 0 {
		c.Push.MinBackoff = DefaultMinBackoff
	}
	if c.Push.MaxBackoff == 0 {
		c.Push.MaxBackoff = DefaultMaxBackoff
	}
	if c.Push.MaxRetries == 0 {
		c.Push.MaxRetries = DefaultMaxRetries
	}
}
