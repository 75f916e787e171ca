package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload            CommandType = "RELOAD"
	CommandGetStatus         CommandType = "GET_STATUS"
	CommandGetWindows        CommandType = "GET_WINDOWS"
	CommandEnableSubmission  CommandType = "ENABLE_SUBMISSION"
	CommandDisableSubmission CommandType = "DISABLE_SUBMISSION"
	CommandToggleSubmission  CommandType = "TOGGLE_SUBMISSION"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	HTTPListen    string `json:"http_listen,omitempty"`
	ConfigPath    string `json:"config_path,omitempty"`
	// TrackedWindows is the window count seen by the last background scan.
	TrackedWindows int           `json:"tracked_windows"`
	LastScan       time.Time     `json:"last_scan,omitzero"`
	Submission     submit.Status `json:"submission"`
}

// WindowsData represents the data returned by GET_WINDOWS
type WindowsData struct {
	Windows []window.WindowInfo `json:"windows"`
}

// SubmissionData is returned by the submission commands.
type SubmissionData struct {
	Submission submit.Status `json:"submission"`
}

// EnableSubmissionPayload optionally overrides the configured interval and
// endpoint for one enable. Zero values keep the configuration.
type EnableSubmissionPayload struct {
	IntervalMs int    `json:"interval_ms,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is empty")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
