package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSubmissionPeriodMs  = 1000
	DefaultSubmissionTimeoutMs = 10000
	DefaultHTTPListen          = "127.0.0.1:5000"
	DefaultLogLevel            = "info"
)

// Config holds the application configuration.
type Config struct {
	// SubmissionEndpointURL is the collector base URL; deliveries go to
	// <url>/<sessionId>. Submission cannot be enabled while it is empty.
	SubmissionEndpointURL string `yaml:"submission_endpoint_url"`
	SubmissionPeriodMs    int    `yaml:"submission_period_ms"`
	SubmissionTimeoutMs   int    `yaml:"submission_timeout_ms"`
	SubmissionOnStart     bool   `yaml:"submission_on_start"`
	// HTTPListen is the local query endpoint address; empty disables it.
	HTTPListen   string `yaml:"http_listen"`
	ToggleHotkey string `yaml:"toggle_hotkey,omitempty"`
	LogLevel     string `yaml:"log_level"`
	Display      string `yaml:"display,omitempty"`
	XAuthority   string `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		SubmissionPeriodMs:  DefaultSubmissionPeriodMs,
		SubmissionTimeoutMs: DefaultSubmissionTimeoutMs,
		HTTPListen:          DefaultHTTPListen,
		LogLevel:            DefaultLogLevel,
	}
}

// SubmissionInterval returns submission_period_ms as a duration.
func (c *Config) SubmissionInterval() time.Duration {
	return time.Duration(c.SubmissionPeriodMs) * time.Millisecond
}

// SubmissionTimeout returns submission_timeout_ms as a duration.
func (c *Config) SubmissionTimeout() time.Duration {
	return time.Duration(c.SubmissionTimeoutMs) * time.Millisecond
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path, creating parent directories. It
// marshals the effective config, so comments and includes are not preserved.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if endpoint := strings.TrimSpace(c.SubmissionEndpointURL); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return &ValidationError{Path: "submission_endpoint_url", Err: err}
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{Path: "submission_endpoint_url", Err: fmt.Errorf("submission_endpoint_url must be an absolute http or https URL")}
		}
	}
	if c.SubmissionPeriodMs <= 0 {
		return &ValidationError{Path: "submission_period_ms", Err: fmt.Errorf("submission_period_ms must be > 0")}
	}
	if c.SubmissionTimeoutMs <= 0 {
		return &ValidationError{Path: "submission_timeout_ms", Err: fmt.Errorf("submission_timeout_ms must be > 0")}
	}
	if listen := strings.TrimSpace(c.HTTPListen); listen != "" {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return &ValidationError{Path: "http_listen", Err: fmt.Errorf("http_listen must be host:port: %w", err)}
		}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}

	return nil
}

func (c *Config) validationWarnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string

	if c.SubmissionOnStart && strings.TrimSpace(c.SubmissionEndpointURL) == "" {
		warnings = append(warnings, "submission_on_start is set but submission_endpoint_url is empty; submission stays off")
	}
	if c.SubmissionTimeoutMs > c.SubmissionPeriodMs*10 {
		warnings = append(warnings, fmt.Sprintf("submission_timeout_ms (%d) is much larger than submission_period_ms (%d); slow deliveries will overlap", c.SubmissionTimeoutMs, c.SubmissionPeriodMs))
	}

	return warnings
}
