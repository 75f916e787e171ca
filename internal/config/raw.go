package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one file's view of the configuration. Nil fields were not set
// and leave the lower layer untouched when merged.
type RawConfig struct {
	Include               IncludeList `yaml:"include"`
	SubmissionEndpointURL *string     `yaml:"submission_endpoint_url"`
	SubmissionPeriodMs    *int        `yaml:"submission_period_ms"`
	SubmissionTimeoutMs   *int        `yaml:"submission_timeout_ms"`
	SubmissionOnStart     *bool       `yaml:"submission_on_start"`
	HTTPListen            *string     `yaml:"http_listen"`
	ToggleHotkey          *string     `yaml:"toggle_hotkey"`
	LogLevel              *string     `yaml:"log_level"`
	Display               *string     `yaml:"display"`
	XAuthority            *string     `yaml:"xauthority"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.SubmissionEndpointURL != nil {
		out.SubmissionEndpointURL = overlay.SubmissionEndpointURL
	}
	if overlay.SubmissionPeriodMs != nil {
		out.SubmissionPeriodMs = overlay.SubmissionPeriodMs
	}
	if overlay.SubmissionTimeoutMs != nil {
		out.SubmissionTimeoutMs = overlay.SubmissionTimeoutMs
	}
	if overlay.SubmissionOnStart != nil {
		out.SubmissionOnStart = overlay.SubmissionOnStart
	}
	if overlay.HTTPListen != nil {
		out.HTTPListen = overlay.HTTPListen
	}
	if overlay.ToggleHotkey != nil {
		out.ToggleHotkey = overlay.ToggleHotkey
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}

	return out
}
