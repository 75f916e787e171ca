package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winpos/internal/config"
	"github.com/1broseidon/winpos/internal/daemon"
	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/tui"
	"github.com/1broseidon/winpos/internal/window"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:], os.Stdout))
	case "windows":
		os.Exit(runWindows(os.Args[2:], os.Stdout))
	case "submit":
		os.Exit(runSubmit(os.Args[2:], os.Stdout))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winpos <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winpos daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon and submission status")
	fmt.Fprintln(w, "  windows             List visible windows and their positions")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  submit on           Start periodic snapshot submission")
	fmt.Fprintln(w, "  submit off          Stop periodic snapshot submission")
	fmt.Fprintln(w, "  submit toggle       Flip the submission state")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive TUI")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winpos <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set that prints usage to stderr and reports
// errors instead of exiting.
func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags maps a parse failure to an exit code; ok is false when the
// caller should return rc.
func parseFlags(fs *pflag.FlagSet, args []string) (rc int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "Usage: winpos daemon [--config PATH] [--socket PATH]")
	configPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/winpos/config.yaml)")
	socketPath := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/winpos.sock)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting winpos daemon...")
	if err := daemon.Run(ctx, daemon.RunOptions{
		ConfigPath: *configPath,
		SocketPath: *socketPath,
	}); err != nil {
		log.Fatalf("Daemon failed: %v", err)
	}
	log.Println("Daemon stopped")
	return 0
}

func runStatus(args []string, w io.Writer) int {
	fs := newFlagSet("status", "Usage: winpos status [--json]\n\nShow daemon status via IPC.")
	asJSON := fs.Bool("json", false, "Print the raw status as JSON")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return writeJSON(w, status)
	}
	printStatus(w, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:  %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "uptime_seconds:  %d\n", status.UptimeSeconds)
	if status.HTTPListen != "" {
		fmt.Fprintf(w, "http_listen:     %s\n", status.HTTPListen)
	}
	fmt.Fprintf(w, "tracked_windows: %d\n", status.TrackedWindows)
	printSubmission(w, status.Submission)
}

func printSubmission(w io.Writer, st submit.Status) {
	if !st.Active {
		fmt.Fprintln(w, "submission:      off")
		return
	}
	fmt.Fprintln(w, "submission:      on")
	fmt.Fprintf(w, "session_id:      %d\n", st.SessionID)
	fmt.Fprintf(w, "interval_ms:     %d\n", st.IntervalMs)
	fmt.Fprintf(w, "endpoint:        %s\n", st.Endpoint)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(w, "started_at:      %s\n", st.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "ticks:           %d\n", st.Ticks)
	fmt.Fprintf(w, "failures:        %d\n", st.Failures)
	if st.LastError != "" {
		fmt.Fprintf(w, "last_error:      %s\n", st.LastError)
	}
}

func runWindows(args []string, w io.Writer) int {
	fs := newFlagSet("windows", "Usage: winpos windows [--json]\n\nList the daemon's current window snapshot.")
	asJSON := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	wins, err := ipc.NewClient().GetWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		if wins == nil {
			wins = []window.WindowInfo{}
		}
		return writeJSON(w, wins)
	}
	fmt.Fprintln(w, renderWindowsTable(wins))
	return 0
}

func renderWindowsTable(wins []window.WindowInfo) string {
	rows := make([][]string, 0, len(wins))
	for _, win := range wins {
		rows = append(rows, []string{
			win.ProcessName,
			strconv.Itoa(win.PID),
			win.WindowTitle,
			strconv.Itoa(win.X),
			strconv.Itoa(win.Y),
			strconv.Itoa(win.W),
			strconv.Itoa(win.H),
		})
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PROCESS", "PID", "TITLE", "X", "Y", "W", "H").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String()
}

func printSubmitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winpos submit on [--interval-ms N] [--endpoint URL]")
	fmt.Fprintln(w, "  winpos submit off")
	fmt.Fprintln(w, "  winpos submit toggle")
}

func runSubmit(args []string, w io.Writer) int {
	if len(args) == 0 {
		printSubmitUsage(os.Stderr)
		return 2
	}

	client := ipc.NewClient()
	var (
		st  submit.Status
		err error
	)
	switch args[0] {
	case "on", "enable":
		fs := newFlagSet("submit on", "Usage: winpos submit on [--interval-ms N] [--endpoint URL]")
		intervalMs := fs.Int("interval-ms", 0, "Delivery interval (default: submission_period_ms)")
		endpoint := fs.String("endpoint", "", "Collector base URL (default: submission_endpoint_url)")
		if rc, ok := parseFlags(fs, args[1:]); !ok {
			return rc
		}
		if *intervalMs < 0 {
			fmt.Fprintln(os.Stderr, "--interval-ms must be > 0")
			return 2
		}
		st, err = client.EnableSubmission(*intervalMs, *endpoint)
	case "off", "disable":
		st, err = client.DisableSubmission()
	case "toggle":
		st, err = client.ToggleSubmission()
	case "help", "-h", "--help":
		printSubmitUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown submit command: %s\n\n", args[0])
		printSubmitUsage(os.Stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printSubmission(w, st)
	return 0
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winpos config validate [--path PATH]")
	fmt.Fprintln(w, "  winpos config print [--path PATH] [--defaults]")
	fmt.Fprintln(w, "  winpos config explain [--path PATH] <yaml.path>")
}

func runConfig(args []string, w io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stderr)
		return 2
	}

	const pathUsage = "Config file path (default: ~/.config/winpos/config.yaml)"

	switch args[0] {
	case "validate":
		fs := newFlagSet("config validate", "Usage: winpos config validate [--path PATH]")
		path := fs.String("path", "", pathUsage)
		if rc, ok := parseFlags(fs, args[1:]); !ok {
			return rc
		}
		if _, err := config.LoadPath(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintln(w, "config: ok")
		return 0

	case "print":
		fs := newFlagSet("config print", "Usage: winpos config print [--path PATH] [--defaults]")
		path := fs.String("path", "", pathUsage)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if rc, ok := parseFlags(fs, args[1:]); !ok {
			return rc
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := config.LoadPath(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprint(w, string(data))
		return 0

	case "explain":
		fs := newFlagSet("config explain", "Usage: winpos config explain [--path PATH] <yaml.path>")
		path := fs.String("path", "", pathUsage)
		if rc, ok := parseFlags(fs, args[1:]); !ok {
			return rc
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := config.LoadPath(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintf(w, "path: %s\n", queryPath)
		fmt.Fprintf(w, "source: %s\n", formatSource(src))
		fmt.Fprintf(w, "value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runTUI(args []string) int {
	fs := newFlagSet("tui", "Usage: winpos tui [--config PATH]\n\nOpen the interactive window and settings view.")
	configPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/winpos/config.yaml)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		fs.Usage()
		return 2
	}

	if err := tui.Run(tui.Options{ConfigPath: *configPath}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
