package window

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/platform"
)

// Enumerator turns a Source into sorted snapshots. It keeps no state between
// calls and is safe for concurrent use.
type Enumerator struct {
	src    Source
	logger *slog.Logger
}

var _ Snapshotter = (*Enumerator)(nil)

// New returns an Enumerator over src. A nil logger discards output.
func New(src Source, logger *slog.Logger) *Enumerator {
	return &Enumerator{src: src, logger: logging.OrDiscard(logger)}
}

// Enumerate returns every window with a non-empty client area, sorted by
// process name. Listing and per-process failures are skipped, never returned.
func (e *Enumerator) Enumerate() []WindowInfo {
	candidates, err := e.src.Windows()
	if err != nil {
		e.logger.Debug("window listing failed", "error", err)
		return []WindowInfo{}
	}

	out := make([]WindowInfo, 0, len(candidates))
	for _, w := range candidates {
		info, ok := e.probe(w)
		if !ok {
			continue
		}
		if info.W <= 0 || info.H <= 0 {
			continue
		}
		out = append(out, info)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProcessName < out[j].ProcessName
	})

	e.logger.Debug("enumerated windows", "listed", len(candidates), "retained", len(out))
	return out
}

// probe holds the process handle for exactly one window query.
func (e *Enumerator) probe(w platform.Window) (WindowInfo, bool) {
	h, err := e.src.Open(w)
	if err != nil {
		e.logger.Debug("open process failed", "pid", w.PID, "error", err)
		return WindowInfo{}, false
	}
	defer func() {
		if err := h.Close(); err != nil {
			e.logger.Debug("close process handle failed", "pid", w.PID, "error", err)
		}
	}()

	rect, err := h.ClientRect()
	if err != nil {
		e.logger.Debug("client rect query failed", "pid", w.PID, "error", err)
		return WindowInfo{}, false
	}

	x, y, err := h.ClientToScreen(rect.Left, rect.Top)
	if err != nil {
		e.logger.Debug("client to screen failed", "pid", w.PID, "error", err)
		return WindowInfo{}, false
	}

	return WindowInfo{
		PID:         w.PID,
		ProcessName: h.ProcessName(),
		WindowTitle: w.Title,
		X:           x,
		Y:           y,
		W:           rect.Width(),
		H:           rect.Height(),
	}, true
}
