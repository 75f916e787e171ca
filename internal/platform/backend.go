package platform

import (
	"fmt"
	"runtime"
)

// WindowID is a platform-neutral window identifier (an X11 window or a Win32 HWND).
type WindowID uint64

// Rect describes a rectangle by its edges, in the coordinate space of the query that produced it.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns Right - Left. It may be zero or negative.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top. It may be zero or negative.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Window is a candidate main window as reported by the OS window list.
type Window struct {
	ID    WindowID
	PID   int
	Title string
}

// Handle is the per-process resource acquired while querying a single window.
// Callers must Close it before moving on to the next window.
type Handle interface {
	ProcessName() string
	// ClientRect returns the client area in client coordinates.
	ClientRect() (Rect, error)
	// ClientToScreen translates a client-area point to screen coordinates.
	ClientToScreen(x, y int) (int, int, error)
	Close() error
}

// Backend is the OS window source used by the enumerator.
type Backend interface {
	Windows() ([]Window, error)
	Open(w Window) (Handle, error)
}

// ErrUnsupported is returned by NewBackend on platforms without a window source.
var ErrUnsupported = fmt.Errorf("window enumeration is not supported on %s/%s; supported: linux (X11), windows", runtime.GOOS, runtime.GOARCH)

// Options configures backend construction.
type Options struct {
	// Display overrides $DISPLAY for X11.
	Display string
	// XAuthority overrides $XAUTHORITY for X11.
	XAuthority string
}
