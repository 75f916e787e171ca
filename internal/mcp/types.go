package mcp

import (
	"time"

	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Process string `json:"process,omitempty" jsonschema:"Only return windows whose process name contains this text (case-insensitive)"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Count   int                 `json:"count"`
	Windows []window.WindowInfo `json:"windows"`
}

// SubmissionInfo mirrors the controller status with a string timestamp.
type SubmissionInfo struct {
	Active     bool   `json:"active"`
	SessionID  int    `json:"sessionId,omitempty"`
	IntervalMs int64  `json:"intervalMs,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	StartedAt  string `json:"startedAt,omitempty"`
	Ticks      int64  `json:"ticks"`
	Failures   int64  `json:"failures"`
	LastError  string `json:"lastError,omitempty"`
}

func submissionInfo(st submit.Status) SubmissionInfo {
	info := SubmissionInfo{
		Active:     st.Active,
		SessionID:  st.SessionID,
		IntervalMs: st.IntervalMs,
		Endpoint:   st.Endpoint,
		Ticks:      st.Ticks,
		Failures:   st.Failures,
		LastError:  st.LastError,
	}
	if !st.StartedAt.IsZero() {
		info.StartedAt = st.StartedAt.UTC().Format(time.RFC3339)
	}
	return info
}

// SubmissionStatusInput is the (empty) input for the submission_status tool.
type SubmissionStatusInput struct{}

// SubmissionStatusOutput is the output for the submission_status tool.
type SubmissionStatusOutput struct {
	UptimeSeconds  int64          `json:"uptime_seconds"`
	HTTPListen     string         `json:"http_listen,omitempty"`
	TrackedWindows int            `json:"tracked_windows"`
	Submission     SubmissionInfo `json:"submission"`
}

// SetSubmissionInput is the input for the set_submission tool.
type SetSubmissionInput struct {
	Mode       string `json:"mode" jsonschema:"One of on, off or toggle"`
	IntervalMs int    `json:"interval_ms,omitempty" jsonschema:"Delivery interval in milliseconds when turning on (default: submission_period_ms)"`
	Endpoint   string `json:"endpoint,omitempty" jsonschema:"Collector base URL when turning on (default: submission_endpoint_url)"`
}

// SetSubmissionOutput is the output for the set_submission tool.
type SetSubmissionOutput struct {
	Submission SubmissionInfo `json:"submission"`
}
