package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winpos/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // showing changes, awaiting confirm
	saveResult            // showing outcome message
)

// SaveOverlay previews pending settings changes and writes them on confirm.
type SaveOverlay struct {
	phase    savePhase
	changes  []config.Change
	err      error
	reloaded bool
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show opens the preview, or reports that nothing changed.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.changes = config.Diff(original, current)
	if len(s.changes) == 0 {
		s.phase = saveResult
		s.err = fmt.Errorf("no changes to save")
		return
	}
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. On confirm the config is
// written to path and, when the daemon is reachable, reloaded.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, client DaemonClient, connected bool) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc", "n":
			s.phase = saveHidden
		case "enter", "y":
			if path == "" {
				s.err = cfg.Save()
			} else {
				s.err = cfg.SaveTo(path)
			}
			if s.err == nil && connected && client != nil {
				s.reloaded = client.Reload() == nil
			}
			s.phase = saveResult
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay centered in the content area.
func (s SaveOverlay) View(width, height int) string {
	var content string
	switch s.phase {
	case savePreview:
		title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save Config: Pending Changes")
		lines := make([]string, 0, len(s.changes))
		for _, c := range s.changes {
			lines = append(lines,
				errStyle.Render(fmt.Sprintf("- %s: %v", c.Path, c.Old)),
				okStyle.Render(fmt.Sprintf("+ %s: %v", c.Path, c.New)),
			)
		}
		content = title + "\n\n" + strings.Join(lines, "\n") + "\n\n" + dimStyle.Render("enter: save  esc: cancel")
	case saveResult:
		var msg string
		if s.err != nil {
			msg = errStyle.Bold(true).Render("Error: " + s.err.Error())
		} else {
			msg = okStyle.Bold(true).Render("Config saved successfully")
			if s.reloaded {
				msg += "\n" + okStyle.Render("Daemon reloaded")
			}
		}
		content = msg + "\n\n" + dimStyle.Render("press any key to dismiss")
	default:
		return ""
	}

	boxW := min(max(width-8, 30), 80)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
