package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

type fakeDaemon struct {
	windows   []window.WindowInfo
	status    submit.Status
	err       error
	enableMs  int
	enableURL string
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{DaemonRunning: true, UptimeSeconds: 12, TrackedWindows: len(f.windows), Submission: f.status}, nil
}

func (f *fakeDaemon) GetWindows() ([]window.WindowInfo, error) {
	return f.windows, f.err
}

func (f *fakeDaemon) EnableSubmission(intervalMs int, endpoint string) (submit.Status, error) {
	if f.err != nil {
		return submit.Status{}, f.err
	}
	f.enableMs, f.enableURL = intervalMs, endpoint
	f.status = submit.Status{Active: true, SessionID: 345, IntervalMs: int64(intervalMs), Endpoint: endpoint,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return f.status, nil
}

func (f *fakeDaemon) DisableSubmission() (submit.Status, error) {
	f.status = submit.Status{}
	return f.status, f.err
}

func (f *fakeDaemon) ToggleSubmission() (submit.Status, error) {
	if f.status.Active {
		return f.DisableSubmission()
	}
	return f.EnableSubmission(1000, "http://configured")
}

func sampleWindows() []window.WindowInfo {
	return []window.WindowInfo{
		{PID: 1, ProcessName: "Firefox", WindowTitle: "news", X: 0, Y: 0, W: 800, H: 600},
		{PID: 2, ProcessName: "code", WindowTitle: "main.go", X: 800, Y: 0, W: 640, H: 480},
	}
}

func TestListWindowsFilter(t *testing.T) {
	s := NewServer(&fakeDaemon{windows: sampleWindows()})

	_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list_windows error = %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("Count = %d, want 2", out.Count)
	}

	_, out, err = s.handleListWindows(context.Background(), nil, ListWindowsInput{Process: "fire"})
	if err != nil {
		t.Fatalf("list_windows error = %v", err)
	}
	if out.Count != 1 || out.Windows[0].ProcessName != "Firefox" {
		t.Fatalf("filtered = %+v", out)
	}
}

func TestListWindowsDaemonDown(t *testing.T) {
	s := NewServer(&fakeDaemon{err: errors.New("failed to connect to daemon")})
	if _, _, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{}); err == nil {
		t.Fatalf("list_windows error = nil, want daemon error")
	}
}

func TestSetSubmissionModes(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d)
	ctx := context.Background()

	_, out, err := s.handleSetSubmission(ctx, nil, SetSubmissionInput{Mode: "on", IntervalMs: 500, Endpoint: " http://c/api "})
	if err != nil {
		t.Fatalf("on error = %v", err)
	}
	if !out.Submission.Active || out.Submission.SessionID != 345 || out.Submission.StartedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("on output = %+v", out)
	}
	if d.enableMs != 500 || d.enableURL != "http://c/api" {
		t.Fatalf("daemon got (%d, %q)", d.enableMs, d.enableURL)
	}

	_, out, err = s.handleSetSubmission(ctx, nil, SetSubmissionInput{Mode: "toggle"})
	if err != nil || out.Submission.Active {
		t.Fatalf("toggle = %+v, %v; want inactive", out, err)
	}

	_, out, err = s.handleSetSubmission(ctx, nil, SetSubmissionInput{Mode: "OFF"})
	if err != nil || out.Submission.Active {
		t.Fatalf("off = %+v, %v", out, err)
	}

	if _, _, err := s.handleSetSubmission(ctx, nil, SetSubmissionInput{Mode: "sometimes"}); err == nil || !strings.Contains(err.Error(), "mode must be") {
		t.Fatalf("bad mode error = %v", err)
	}
	if _, _, err := s.handleSetSubmission(ctx, nil, SetSubmissionInput{Mode: "on", IntervalMs: -1}); err == nil {
		t.Fatalf("negative interval error = nil")
	}
}

func TestSubmissionStatus(t *testing.T) {
	s := NewServer(&fakeDaemon{windows: sampleWindows(), status: submit.Status{Active: true, SessionID: 222, Ticks: 9, Failures: 2}})
	_, out, err := s.handleSubmissionStatus(context.Background(), nil, SubmissionStatusInput{})
	if err != nil {
		t.Fatalf("submission_status error = %v", err)
	}
	if out.UptimeSeconds != 12 || out.TrackedWindows != 2 || out.Submission.SessionID != 222 || out.Submission.Failures != 2 {
		t.Fatalf("submission_status = %+v", out)
	}
}

func TestToolsOverInMemoryTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := NewServer(&fakeDaemon{windows: sampleWindows()})
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: "list_windows", Arguments: map[string]any{"process": "code"}})
	if err != nil {
		t.Fatalf("CallTool error = %v", err)
	}
	if res.IsError {
		t.Fatalf("list_windows returned a tool error: %+v", res.Content)
	}

	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out ListWindowsOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode structured content %s: %v", raw, err)
	}
	if out.Count != 1 || out.Windows[0].WindowTitle != "main.go" {
		t.Fatalf("list_windows = %+v", out)
	}
}
