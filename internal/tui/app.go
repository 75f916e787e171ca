package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winpos/internal/config"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

const refreshInterval = time.Second

type tickMsg time.Time

// refreshMsg carries one poll of the daemon.
type refreshMsg struct {
	status  submit.Status
	windows []window.WindowInfo
	err     error
}

type toggledMsg struct {
	status submit.Status
	err    error
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	cfg        *config.Config
	client     DaemonClient

	activeTab   Tab
	windowsTab  WindowsTab
	settingsTab SettingsTab

	originalConfig *config.Config
	saveOverlay    SaveOverlay

	connected  bool
	submission submit.Status
	lastErr    string

	width  int
	height int
}

func newModel(configPath string, client DaemonClient) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabWindows,
		windowsTab: NewWindowsTab(),
	}
	m.loadConfig()
	m.settingsTab = NewSettingsTab(m.cfg)
	return m
}

func (m *model) loadConfig() {
	res, err := config.LoadPath(m.configPath)
	if err != nil {
		m.lastErr = "config: " + err.Error()
		return
	}
	m.cfg = res.Config
	m.configPath = res.Path
	m.originalConfig = cloneConfig(res.Config)
}

func cloneConfig(cfg *config.Config) *config.Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	return &c
}

func (m model) fetch() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		st, err := client.GetStatus()
		if err != nil {
			return refreshMsg{err: err}
		}
		wins, err := client.GetWindows()
		return refreshMsg{status: st.Submission, windows: wins, err: err}
	}
}

func (m model) toggle() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		st, err := client.ToggleSubmission()
		return toggledMsg{status: st, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	return max(m.height-4, 1)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Daemon results are applied whatever has focus.
	switch msg := msg.(type) {
	case refreshMsg:
		m.applyRefresh(msg)
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())
	case toggledMsg:
		if msg.err != nil {
			m.lastErr = "toggle: " + msg.err.Error()
		} else {
			m.submission = msg.status
			m.lastErr = ""
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		m.windowsTab, _ = m.windowsTab.Update(sub)
		m.settingsTab, _ = m.settingsTab.Update(sub)
		return m, nil
	}

	km, isKey := msg.(tea.KeyMsg)
	if isKey && km.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Save overlay captures all input when active.
	if m.saveOverlay.Active() {
		if isKey {
			prev := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(km, m.cfg, m.configPath, m.client, m.connected)
			if prev == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = cloneConfig(m.cfg)
			}
		}
		return m, nil
	}

	if isKey && km.String() == "ctrl+s" {
		if m.cfg != nil {
			m.saveOverlay.Show(m.originalConfig, m.cfg)
		}
		return m, nil
	}

	// The settings form consumes every key while editing.
	if m.activeTab == TabSettings && m.settingsTab.editing {
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		return m, cmd
	}

	if isKey {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabSettings
			return m, nil
		case "s":
			return m, m.toggle()
		case "r":
			return m, m.fetch()
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

func (m *model) applyRefresh(msg refreshMsg) {
	if msg.err != nil {
		m.connected = false
		m.submission = submit.Status{}
		m.windowsTab.SetWindows(nil)
		return
	}
	m.connected = true
	m.submission = msg.status
	m.windowsTab.SetWindows(msg.windows)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.submission, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width, m.lastErr)

	used := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := max(m.height-used, 1)

	var content string
	switch {
	case m.saveOverlay.Active():
		content = m.saveOverlay.View(m.width, contentHeight)
	case m.activeTab == TabSettings:
		content = m.settingsTab.View()
	default:
		content = m.windowsTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, tabBar, content, helpBar)
}
