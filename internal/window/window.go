// Package window builds ordered client-area snapshots of the visible
// application windows reported by an OS window source.
package window

import "github.com/1broseidon/winpos/internal/platform"

// WindowInfo is one process's window as seen by a single enumeration.
// X and Y are the client-area origin in screen coordinates; W and H are the
// client-area size and are always positive in a snapshot.
type WindowInfo struct {
	PID         int    `json:"pid"`
	ProcessName string `json:"processName"`
	WindowTitle string `json:"windowTitle"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	W           int    `json:"w"`
	H           int    `json:"h"`
}

// Source lists candidate main windows and opens the per-process resource
// needed to query one of them.
type Source interface {
	Windows() ([]platform.Window, error)
	Open(w platform.Window) (platform.Handle, error)
}

// Snapshotter produces a window snapshot.
type Snapshotter interface {
	Enumerate() []WindowInfo
}

// SnapshotFunc adapts a function to Snapshotter.
type SnapshotFunc func() []WindowInfo

// Enumerate calls f.
func (f SnapshotFunc) Enumerate() []WindowInfo {
	return f()
}
