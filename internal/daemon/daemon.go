// Package daemon wires the window enumerator, the submission controller and
// the control surfaces (IPC, HTTP, hotkey) into one long-running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winpos/internal/config"
	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// ErrNoEndpoint is returned when submission is enabled without an endpoint
// argument and submission_endpoint_url is not configured.
var ErrNoEndpoint = errors.New("submission_endpoint_url is not configured")

// Options configures a Daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Snapshot   window.Snapshotter
	// Controller defaults to a controller over Snapshot using the configured timeout.
	Controller *submit.Controller
	Tracker    *Tracker
	Logger     *slog.Logger
	// LevelVar, when set, follows log_level across reloads.
	LevelVar *slog.LevelVar
	// Load re-reads configuration on Reload; defaults to config.LoadFromPath(ConfigPath).
	Load func() (*config.LoadResult, error)
	Now  func() time.Time
}

// Daemon implements the IPC handler and the hotkey toggler.
type Daemon struct {
	snap    window.Snapshotter
	ctrl    *submit.Controller
	tracker *Tracker
	logger  *slog.Logger
	levels  *slog.LevelVar
	load    func() (*config.LoadResult, error)
	now     func() time.Time
	started time.Time

	mu         sync.RWMutex
	cfg        *config.Config
	configPath string
}

// New validates opts and returns a daemon with submission Idle.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if opts.Snapshot == nil {
		return nil, errors.New("daemon: snapshot source is required")
	}

	logger := logging.OrDiscard(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = submit.NewController(opts.Snapshot, submit.Options{
			Timeout: opts.Config.SubmissionTimeout(),
			Logger:  logger.With("component", "submit"),
			Now:     now,
		})
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTracker(TrackerConfig{Logger: logger.With("component", "tracker"), Now: now}, opts.Snapshot)
	}

	load := opts.Load
	if load == nil {
		path := opts.ConfigPath
		load = func() (*config.LoadResult, error) {
			if path == "" {
				return config.LoadWithSources()
			}
			return config.LoadFromPath(path)
		}
	}

	return &Daemon{
		snap:       opts.Snapshot,
		ctrl:       ctrl,
		tracker:    tracker,
		logger:     logger,
		levels:     opts.LevelVar,
		load:       load,
		now:        now,
		started:    now(),
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
	}, nil
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Tracker returns the background scanner.
func (d *Daemon) Tracker() *Tracker {
	return d.tracker
}

// SubmissionStatus reports the controller state.
func (d *Daemon) SubmissionStatus() submit.Status {
	return d.ctrl.Status()
}

// Status reports daemon and submission state.
func (d *Daemon) Status() ipc.StatusData {
	d.mu.RLock()
	cfg, path := d.cfg, d.configPath
	d.mu.RUnlock()

	count, lastScan := d.tracker.Summary()
	return ipc.StatusData{
		DaemonRunning:  true,
		UptimeSeconds:  int64(d.now().Sub(d.started).Seconds()),
		HTTPListen:     cfg.HTTPListen,
		ConfigPath:     path,
		TrackedWindows: count,
		LastScan:       lastScan,
		Submission:     d.ctrl.Status(),
	}
}

// Windows returns a fresh snapshot.
func (d *Daemon) Windows() []window.WindowInfo {
	return d.snap.Enumerate()
}

// EnableSubmission starts a new session. Zero arguments fall back to
// submission_period_ms and submission_endpoint_url.
func (d *Daemon) EnableSubmission(intervalMs int, endpoint string) (submit.Status, error) {
	interval, endpoint, err := d.settings(intervalMs, endpoint)
	if err != nil {
		return submit.Status{}, err
	}
	return d.ctrl.Enable(interval, endpoint)
}

// DisableSubmission stops the active session, if any.
func (d *Daemon) DisableSubmission() submit.Status {
	d.ctrl.Disable()
	return d.ctrl.Status()
}

// ToggleSubmission flips submission using the configured settings.
func (d *Daemon) ToggleSubmission() (submit.Status, error) {
	cfg := d.Config()
	st, err := d.ctrl.Toggle(cfg.SubmissionInterval(), cfg.SubmissionEndpointURL)
	if err != nil && cfg.SubmissionEndpointURL == "" && errors.Is(err, submit.ErrInvalidEndpoint) {
		return st, ErrNoEndpoint
	}
	return st, err
}

func (d *Daemon) settings(intervalMs int, endpoint string) (time.Duration, string, error) {
	cfg := d.Config()
	if intervalMs < 0 {
		return 0, "", fmt.Errorf("%w: %dms", submit.ErrInvalidInterval, intervalMs)
	}
	if intervalMs == 0 {
		intervalMs = cfg.SubmissionPeriodMs
	}
	if endpoint == "" {
		endpoint = cfg.SubmissionEndpointURL
	}
	if endpoint == "" {
		return 0, "", ErrNoEndpoint
	}
	return time.Duration(intervalMs) * time.Millisecond, endpoint, nil
}

// Reload re-reads the configuration. A running session keeps its settings;
// the next enable uses the new values.
func (d *Daemon) Reload() error {
	res, err := d.load()
	if err != nil {
		return err
	}
	next := res.Config

	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	if res.Path != "" {
		d.configPath = res.Path
	}
	d.mu.Unlock()

	if d.levels != nil {
		if level, err := logging.ParseLevel(next.LogLevel); err == nil {
			d.levels.Set(level)
		}
	}

	for _, key := range restartRequired(prev, next) {
		d.logger.Warn("config change takes effect after restart", "key", key)
	}
	d.logger.Info("config reloaded", "path", res.Path)
	return nil
}

// startupKeys are bound once at startup.
var startupKeys = map[string]bool{
	"http_listen":           true,
	"toggle_hotkey":         true,
	"submission_timeout_ms": true,
	"display":               true,
	"xauthority":            true,
}

// restartRequired lists startup-bound keys whose value changed.
func restartRequired(prev, next *config.Config) []string {
	var keys []string
	for _, c := range config.Diff(prev, next) {
		if startupKeys[c.Path] {
			keys = append(keys, c.Path)
		}
	}
	return keys
}

// Close stops submission and waits for in-flight deliveries until ctx expires.
func (d *Daemon) Close(ctx context.Context) error {
	return d.ctrl.Close(ctx)
}
