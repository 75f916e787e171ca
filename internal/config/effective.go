package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw over DefaultConfig. Values are normalized
// but not validated.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.SubmissionEndpointURL != nil {
		cfg.SubmissionEndpointURL = strings.TrimSpace(*raw.SubmissionEndpointURL)
	}
	if raw.SubmissionPeriodMs != nil {
		cfg.SubmissionPeriodMs = *raw.SubmissionPeriodMs
	}
	if raw.SubmissionTimeoutMs != nil {
		cfg.SubmissionTimeoutMs = *raw.SubmissionTimeoutMs
	}
	if raw.SubmissionOnStart != nil {
		cfg.SubmissionOnStart = *raw.SubmissionOnStart
	}
	if raw.HTTPListen != nil {
		cfg.HTTPListen = strings.TrimSpace(*raw.HTTPListen)
	}
	if raw.ToggleHotkey != nil {
		cfg.ToggleHotkey = strings.TrimSpace(*raw.ToggleHotkey)
	}
	if raw.LogLevel != nil {
		level, err := normalizeLogLevel(*raw.LogLevel)
		if err != nil {
			return nil, &ValidationError{Path: "log_level", Err: err}
		}
		cfg.LogLevel = level
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}

	return cfg, nil
}

// normalizeLogLevel accepts "warn" as an alias of "warning".
func normalizeLogLevel(level string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(level)); v {
	case "debug", "info", "warning", "error":
		return v, nil
	case "warn":
		return "warning", nil
	default:
		return "", fmt.Errorf("log_level must be one of: debug, info, warning, error")
	}
}
