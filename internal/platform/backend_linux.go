//go:build linux

package platform

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/winpos/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewBackend opens a fresh X11 connection using the display overrides in opts.
func NewBackend(opts Options) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(opts.Display, opts.XAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// QuitEventLoop stops a running EventLoop.
func (b *LinuxBackend) QuitEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.QuitEventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Windows lists one main window per process from _NET_CLIENT_LIST. The first
// client seen for a PID wins; clients without _NET_WM_PID are kept individually.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(clients))
	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}

		pid := conn.WindowPID(windowID)
		if pid > 0 {
			if seen[pid] {
				continue
			}
			seen[pid] = true
		}

		windows = append(windows, Window{
			ID:    WindowID(windowID),
			PID:   pid,
			Title: conn.WindowTitle(windowID),
		})
	}

	return windows, nil
}

// Open acquires /proc/<pid>/comm for the window's process. It fails when the
// process has already exited.
func (b *LinuxBackend) Open(w Window) (Handle, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	h := &x11Handle{conn: conn, window: xproto.Window(w.ID)}
	if w.PID <= 0 {
		h.name = conn.WindowClass(h.window)
		return h, nil
	}

	f, err := os.Open(procCommPath(w.PID))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", w.PID, err)
	}
	h.comm = f

	name, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && name == "" {
		f.Close()
		return nil, fmt.Errorf("read process %d name: %w", w.PID, err)
	}
	h.name = strings.TrimSpace(name)
	return h, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func procCommPath(pid int) string {
	return "/proc/" + strconv.Itoa(pid) + "/comm"
}

type x11Handle struct {
	conn   *x11.Connection
	window xproto.Window
	comm   *os.File
	name   string
}

func (h *x11Handle) ProcessName() string {
	return h.name
}

// ClientRect reports the client area at origin (0,0). Iconified windows
// report an empty rect.
func (h *x11Handle) ClientRect() (Rect, error) {
	if h.conn.IsHidden(h.window) {
		return Rect{}, nil
	}
	width, height, err := h.conn.ClientSize(h.window)
	if err != nil {
		return Rect{}, err
	}
	return Rect{Right: width, Bottom: height}, nil
}

func (h *x11Handle) ClientToScreen(x, y int) (int, int, error) {
	return h.conn.TranslateToRoot(h.window, x, y)
}

func (h *x11Handle) Close() error {
	if h.comm == nil {
		return nil
	}
	err := h.comm.Close()
	h.comm = nil
	return err
}
