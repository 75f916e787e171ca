package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/winpos/internal/window"
)

// WindowsTab shows the latest snapshot as a table.
type WindowsTab struct {
	table   table.Model
	windows []window.WindowInfo
	width   int
	height  int
}

var windowColumns = []table.Column{
	{Title: "Process", Width: 18},
	{Title: "PID", Width: 7},
	{Title: "Title", Width: 32},
	{Title: "X", Width: 6},
	{Title: "Y", Width: 6},
	{Title: "W", Width: 6},
	{Title: "H", Width: 6},
}

// NewWindowsTab creates an empty windows table.
func NewWindowsTab() WindowsTab {
	t := table.New(
		table.WithColumns(windowColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))
	t.SetStyles(styles)
	return WindowsTab{table: t}
}

// SetWindows replaces the rows.
func (w *WindowsTab) SetWindows(wins []window.WindowInfo) {
	w.windows = wins
	w.table.SetRows(windowRows(wins))
}

func windowRows(wins []window.WindowInfo) []table.Row {
	rows := make([]table.Row, 0, len(wins))
	for _, win := range wins {
		rows = append(rows, table.Row{
			win.ProcessName,
			strconv.Itoa(win.PID),
			win.WindowTitle,
			strconv.Itoa(win.X),
			strconv.Itoa(win.Y),
			strconv.Itoa(win.W),
			strconv.Itoa(win.H),
		})
	}
	return rows
}

// Update handles navigation keys and resizes.
func (w WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = size.Width
		w.height = size.Height
		w.table.SetWidth(size.Width)
		// Leave a line for the count footer.
		w.table.SetHeight(max(size.Height-1, 3))
		return w, nil
	}
	var cmd tea.Cmd
	w.table, cmd = w.table.Update(msg)
	return w, cmd
}

// View renders the table and a count footer.
func (w WindowsTab) View() string {
	footer := dimStyle.Render(strconv.Itoa(len(w.windows)) + " windows")
	if len(w.windows) == 0 {
		footer = dimStyle.Render("no windows (is the daemon running?)")
	}
	return lipgloss.JoinVertical(lipgloss.Left, w.table.View(), footer)
}
