// Package tui is the interactive terminal view of the daemon: the live window
// table, the submission indicator, and the settings editor.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// DaemonClient is the subset of the IPC client the TUI uses.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() ([]window.WindowInfo, error)
	ToggleSubmission() (submit.Status, error)
	Reload() error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Options configures Run.
type Options struct {
	// ConfigPath overrides ~/.config/winpos/config.yaml.
	ConfigPath string
	Client     DaemonClient
}

// Run starts the TUI and blocks until the user quits.
func Run(opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	client := opts.Client
	if client == nil {
		client = ipc.NewClient()
	}

	p := tea.NewProgram(newModel(opts.ConfigPath, client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
