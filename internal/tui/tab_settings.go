package tui

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winpos/internal/config"
)

// SettingsTab displays the effective configuration and edits it with a form.
type SettingsTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fEndpoint  string
	fPeriodMs  string
	fTimeoutMs string
	fOnStart   bool
	fListen    string
	fHotkey    string
	fLogLevel  string
}

// NewSettingsTab creates a SettingsTab over cfg.
func NewSettingsTab(cfg *config.Config) SettingsTab {
	return SettingsTab{cfg: cfg}
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.editing {
		return s.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" && s.cfg != nil {
			s.startEditing()
			return s, s.form.Init()
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.editing = false
			s.form = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	case huh.StateAborted:
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) loadForm() {
	cfg := s.cfg
	s.fEndpoint = cfg.SubmissionEndpointURL
	s.fPeriodMs = strconv.Itoa(cfg.SubmissionPeriodMs)
	s.fTimeoutMs = strconv.Itoa(cfg.SubmissionTimeoutMs)
	s.fOnStart = cfg.SubmissionOnStart
	s.fListen = cfg.HTTPListen
	s.fHotkey = cfg.ToggleHotkey
	s.fLogLevel = cfg.LogLevel
}

func (s *SettingsTab) startEditing() {
	s.loadForm()

	w := max(s.width-4, 40)
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("submission_endpoint_url").
				Title("Collector Endpoint").
				Description("Snapshots are POSTed to <endpoint>/<session id>").
				Validate(validateEndpointField).
				Value(&s.fEndpoint),
			huh.NewInput().
				Key("submission_period_ms").
				Title("Interval (ms)").
				Validate(validatePositiveInt).
				Value(&s.fPeriodMs),
			huh.NewInput().
				Key("submission_timeout_ms").
				Title("Request Timeout (ms)").
				Validate(validatePositiveInt).
				Value(&s.fTimeoutMs),
			huh.NewConfirm().
				Key("submission_on_start").
				Title("Submit On Start").
				Value(&s.fOnStart),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("http_listen").
				Title("HTTP Listen").
				Description("host:port for GET /windows; empty disables").
				Validate(validateListenField).
				Value(&s.fListen),
			huh.NewInput().
				Key("toggle_hotkey").
				Title("Toggle Hotkey").
				Description("X11 key sequence, e.g. Mod4-Mod1-w").
				Value(&s.fHotkey),
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warning", "error")...).
				Value(&s.fLogLevel),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

// applyForm copies validated form values into the config.
func (s *SettingsTab) applyForm() {
	if s.cfg == nil {
		return
	}
	s.cfg.SubmissionEndpointURL = strings.TrimSpace(s.fEndpoint)
	if v, err := strconv.Atoi(strings.TrimSpace(s.fPeriodMs)); err == nil && v > 0 {
		s.cfg.SubmissionPeriodMs = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s.fTimeoutMs)); err == nil && v > 0 {
		s.cfg.SubmissionTimeoutMs = v
	}
	s.cfg.SubmissionOnStart = s.fOnStart
	s.cfg.HTTPListen = strings.TrimSpace(s.fListen)
	s.cfg.ToggleHotkey = strings.TrimSpace(s.fHotkey)
	if s.fLogLevel != "" {
		s.cfg.LogLevel = s.fLogLevel
	}
}

func validatePositiveInt(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEndpointField(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http or https URL")
	}
	return nil
}

func validateListenField(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(v); err != nil {
		return fmt.Errorf("must be host:port")
	}
	return nil
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		header := lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true).Render("Editing Settings") +
			dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().Width(s.width).Height(s.height).Padding(1, 2).
			Render(header + "\n\n" + s.form.View())
	}

	if s.cfg == nil {
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(24).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	cfg := s.cfg
	lines := []string{
		"",
		row("Collector Endpoint", displayOrDefault(cfg.SubmissionEndpointURL, "(not set)")),
		row("Interval", fmt.Sprintf("%dms", cfg.SubmissionPeriodMs)),
		row("Request Timeout", fmt.Sprintf("%dms", cfg.SubmissionTimeoutMs)),
		row("Submit On Start", strconv.FormatBool(cfg.SubmissionOnStart)),
		"",
		row("HTTP Listen", displayOrDefault(cfg.HTTPListen, "(disabled)")),
		row("Toggle Hotkey", displayOrDefault(cfg.ToggleHotkey, "(none)")),
		row("Log Level", cfg.LogLevel),
		"",
		dimStyle.Render("  Press 'e' to edit settings, ctrl-s to save"),
	}
	return lipgloss.NewStyle().Width(s.width).Height(s.height).Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
