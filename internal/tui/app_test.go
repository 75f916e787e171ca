package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/winpos/internal/config"
	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

type fakeClient struct {
	status    submit.Status
	windows   []window.WindowInfo
	statusErr error
	toggleErr error
	toggles   int
	reloads   int
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &ipc.StatusData{DaemonRunning: true, Submission: f.status}, nil
}

func (f *fakeClient) GetWindows() ([]window.WindowInfo, error) {
	return f.windows, nil
}

func (f *fakeClient) ToggleSubmission() (submit.Status, error) {
	f.toggles++
	if f.toggleErr != nil {
		return submit.Status{}, f.toggleErr
	}
	f.status = submit.Status{Active: !f.status.Active, SessionID: 432, IntervalMs: 1000}
	return f.status, nil
}

func (f *fakeClient) Reload() error {
	f.reloads++
	return nil
}

func newTestModel(t *testing.T, client *fakeClient) model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := newModel(path, client)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(model)
}

func TestRefreshPopulatesWindowsAndStatus(t *testing.T) {
	client := &fakeClient{
		status: submit.Status{Active: true, SessionID: 517, IntervalMs: 1000, Ticks: 4},
		windows: []window.WindowInfo{
			{PID: 10, ProcessName: "browser", WindowTitle: "docs", X: 0, Y: 0, W: 800, H: 600},
			{PID: 11, ProcessName: "editor", WindowTitle: "main.go", X: 800, Y: 0, W: 640, H: 600},
		},
	}
	m := newTestModel(t, client)
	m = run(t, m, m.fetch())

	if !m.connected {
		t.Fatalf("connected = false after successful refresh")
	}
	view := m.View()
	for _, want := range []string{"session 517", "browser", "main.go", "2 windows"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRefreshWithoutDaemon(t *testing.T) {
	client := &fakeClient{statusErr: errors.New("failed to connect to daemon")}
	m := newTestModel(t, client)
	m = run(t, m, m.fetch())

	if m.connected {
		t.Fatalf("connected = true without daemon")
	}
	if !strings.Contains(m.View(), "daemon not running") {
		t.Fatalf("view missing daemon indicator:\n%s", m.View())
	}
}

func TestToggleKey(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(t, client)

	next, cmd := m.Update(key("s"))
	m = run(t, next.(model), cmd)
	if client.toggles != 1 || !m.submission.Active || m.submission.SessionID != 432 {
		t.Fatalf("after toggle: toggles=%d submission=%+v", client.toggles, m.submission)
	}

	client.toggleErr = errors.New("submission_endpoint_url is not configured")
	next, cmd = m.Update(key("s"))
	m = run(t, next.(model), cmd)
	if !strings.Contains(m.lastErr, "not configured") {
		t.Fatalf("lastErr = %q", m.lastErr)
	}
}

func TestTabSwitching(t *testing.T) {
	m := newTestModel(t, &fakeClient{})

	next, _ := m.Update(key("tab"))
	m = next.(model)
	if m.activeTab != TabSettings {
		t.Fatalf("activeTab = %v, want Settings", m.activeTab)
	}
	if !strings.Contains(m.View(), "Collector Endpoint") {
		t.Fatalf("settings view missing fields:\n%s", m.View())
	}

	next, _ = m.Update(key("1"))
	if next.(model).activeTab != TabWindows {
		t.Fatalf("key 1 did not select Windows")
	}
}

func TestSaveWritesChangedConfig(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(t, client)
	m = run(t, m, m.fetch())

	m.cfg.SubmissionEndpointURL = "http://collector.local/api"
	m.cfg.SubmissionPeriodMs = 2500

	next, _ := m.Update(key("ctrl+s"))
	m = next.(model)
	if m.saveOverlay.phase != savePreview {
		t.Fatalf("overlay phase = %v, want preview", m.saveOverlay.phase)
	}
	if !strings.Contains(m.View(), "+ submission_period_ms: 2500") {
		t.Fatalf("preview missing change:\n%s", m.View())
	}

	next, _ = m.Update(key("enter"))
	m = next.(model)
	if !m.saveOverlay.SaveSucceeded() {
		t.Fatalf("save failed: %v", m.saveOverlay.err)
	}
	if client.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", client.reloads)
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if !strings.Contains(string(data), "submission_period_ms: 2500") {
		t.Fatalf("saved config = %s", data)
	}

	res, err := config.LoadFromPath(m.configPath)
	if err != nil {
		t.Fatalf("reload saved config: %v", err)
	}
	if res.Config.SubmissionEndpointURL != "http://collector.local/api" {
		t.Fatalf("endpoint = %q", res.Config.SubmissionEndpointURL)
	}
}

func TestSaveWithoutConfigPathUsesDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	client := &fakeClient{}
	m := newTestModel(t, client)
	m = run(t, m, m.fetch())
	m.configPath = ""
	m.cfg.SubmissionPeriodMs = 4000

	next, _ := m.Update(key("ctrl+s"))
	m = next.(model)
	next, _ = m.Update(key("enter"))
	m = next.(model)
	if !m.saveOverlay.SaveSucceeded() {
		t.Fatalf("save failed: %v", m.saveOverlay.err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".config", "winpos", "config.yaml"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if !strings.Contains(string(data), "submission_period_ms: 4000") {
		t.Fatalf("saved config = %s", data)
	}
}

func TestSaveWithoutChanges(t *testing.T) {
	m := newTestModel(t, &fakeClient{})
	next, _ := m.Update(key("ctrl+s"))
	m = next.(model)
	if m.saveOverlay.phase != saveResult || m.saveOverlay.err == nil {
		t.Fatalf("overlay = %+v, want no-changes result", m.saveOverlay)
	}
}

func TestSettingsApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewSettingsTab(cfg)
	s.loadForm()

	s.fEndpoint = "  http://c/api  "
	s.fPeriodMs = "750"
	s.fTimeoutMs = "nope"
	s.fListen = ""
	s.fLogLevel = "debug"
	s.applyForm()

	if cfg.SubmissionEndpointURL != "http://c/api" || cfg.SubmissionPeriodMs != 750 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.SubmissionTimeoutMs != config.DefaultSubmissionTimeoutMs {
		t.Fatalf("invalid timeout applied: %d", cfg.SubmissionTimeoutMs)
	}
	if cfg.HTTPListen != "" || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		in      string
		wantErr bool
	}{
		{"positive", validatePositiveInt, "10", false},
		{"zero", validatePositiveInt, "0", true},
		{"not a number", validatePositiveInt, "abc", true},
		{"empty endpoint", validateEndpointField, "", false},
		{"http endpoint", validateEndpointField, "http://h/c", false},
		{"relative endpoint", validateEndpointField, "/c", true},
		{"ftp endpoint", validateEndpointField, "ftp://h/c", true},
		{"empty listen", validateListenField, "", false},
		{"host port", validateListenField, "127.0.0.1:5000", false},
		{"missing port", validateListenField, "localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validator(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
