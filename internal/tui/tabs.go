package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winpos/internal/submit"
)

// Tab identifies a TUI tab.
type Tab int

const (
	TabWindows Tab = iota
	TabSettings
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabWindows:
		return "Windows"
	case TabSettings:
		return "Settings"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderTabBar(active Tab, width int) string {
	tabs := make([]string, 0, tabCount)
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%d:%s", i+1, i)
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(tabs, " "))
	return tabBarStyle.Width(width).Render(row)
}

// renderStatusBar shows daemon reachability and the submission session.
func renderStatusBar(connected bool, st submit.Status, width int) string {
	var parts []string
	switch {
	case !connected:
		parts = append(parts, dimStyle.Render("●")+" daemon not running")
	case st.Active:
		parts = append(parts,
			okStyle.Render("●")+fmt.Sprintf(" submitting  session %d", st.SessionID),
			fmt.Sprintf("every %dms", st.IntervalMs),
			fmt.Sprintf("ticks:%d failures:%d", st.Ticks, st.Failures),
		)
	default:
		parts = append(parts, dimStyle.Render("●")+" submission off")
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(strings.Join(parts, "  "))
}

func renderHelpBar(width int, lastErr string) string {
	help := "tab: switch  s: toggle submission  r: refresh  e: edit settings  ctrl-s: save  q: quit"
	if lastErr != "" {
		help = errStyle.Render(lastErr)
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(help)
}
