package config

import (
	"fmt"
	"sort"
)

// Paths lists every key Explain understands, sorted.
func Paths() []string {
	out := make([]string, 0, len(valueGetters))
	for path := range valueGetters {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

var valueGetters = map[string]func(*Config) any{
	"submission_endpoint_url": func(c *Config) any { return c.SubmissionEndpointURL },
	"submission_period_ms":    func(c *Config) any { return c.SubmissionPeriodMs },
	"submission_timeout_ms":   func(c *Config) any { return c.SubmissionTimeoutMs },
	"submission_on_start":     func(c *Config) any { return c.SubmissionOnStart },
	"http_listen":             func(c *Config) any { return c.HTTPListen },
	"toggle_hotkey":           func(c *Config) any { return c.ToggleHotkey },
	"log_level":               func(c *Config) any { return c.LogLevel },
	"display":                 func(c *Config) any { return c.Display },
	"xauthority":              func(c *Config) any { return c.XAuthority },
}

// Explain returns the effective value at the given key and where it came
// from: the file:line:col of the last file that set it, or the defaults.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	get, ok := valueGetters[path]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return get(cfg), nil
}

// Change is one key whose effective value differs between two configs.
type Change struct {
	Path string
	Old  any
	New  any
}

// Diff returns the keys that differ between a and b, in Paths order.
func Diff(a, b *Config) []Change {
	if a == nil || b == nil {
		return nil
	}
	var out []Change
	for _, path := range Paths() {
		get := valueGetters[path]
		oldV, newV := get(a), get(b)
		if oldV != newV {
			out = append(out, Change{Path: path, Old: oldV, New: newV})
		}
	}
	return out
}
