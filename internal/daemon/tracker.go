package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/window"
)

// DefaultScanInterval is the background scan period when TrackerConfig.Interval is zero.
const DefaultScanInterval = 5 * time.Second

// TrackerConfig holds configuration for the tracker.
type TrackerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Tracker periodically scans the desktop and logs windows that appear or
// disappear between scans.
type Tracker struct {
	interval time.Duration
	snap     window.Snapshotter
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	known    map[int]string // pid -> process name
	count    int
	lastScan time.Time
}

// NewTracker creates a tracker over snap.
func NewTracker(cfg TrackerConfig, snap window.Snapshotter) *Tracker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Tracker{
		interval: interval,
		snap:     snap,
		logger:   logging.OrDiscard(cfg.Logger),
		now:      now,
	}
}

// Run scans immediately and then once per interval. Blocks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("tracker started", "interval", t.interval)
	t.scan()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopped")
			return
		case <-ticker.C:
			t.scan()
		}
	}
}

// ScanNow performs a single scan pass.
func (t *Tracker) ScanNow() {
	t.scan()
}

// Summary returns the window count and time of the last scan.
func (t *Tracker) Summary() (int, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count, t.lastScan
}

func (t *Tracker) scan() {
	// A panicking window source must not take the daemon down.
	defer func() {
		if err := recover(); err != nil {
			t.logger.Error("tracker panic recovered", "error", err)
		}
	}()

	snapshot := t.snap.Enumerate()
	current := make(map[int]string, len(snapshot))
	for _, w := range snapshot {
		current[w.PID] = w.ProcessName
	}

	t.mu.Lock()
	previous := t.known
	t.known = current
	t.count = len(snapshot)
	t.lastScan = t.now()
	t.mu.Unlock()

	// The first scan establishes the baseline.
	if previous == nil {
		t.logger.Debug("tracker baseline", "windows", len(snapshot))
		return
	}

	for pid, name := range current {
		if _, ok := previous[pid]; !ok {
			t.logger.Debug("window appeared", "pid", pid, "process", name)
		}
	}
	for pid, name := range previous {
		if _, ok := current[pid]; !ok {
			t.logger.Debug("window closed", "pid", pid, "process", name)
		}
	}
}
