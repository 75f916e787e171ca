//go:build windows

package platform

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetClientRect    = user32.NewProc("GetClientRect")
	procClientToScreen   = user32.NewProc("ClientToScreen")
	procGetWindow        = user32.NewProc("GetWindow")
	procGetWindowTextLen = user32.NewProc("GetWindowTextLengthW")
	procGetWindowText    = user32.NewProc("GetWindowTextW")
)

const gwOwner = 4

type win32Rect struct {
	Left, Top, Right, Bottom int32
}

type win32Point struct {
	X, Y int32
}

// WindowsBackend lists top-level windows through EnumWindows.
type WindowsBackend struct{}

var _ Backend = (*WindowsBackend)(nil)

// NewBackend returns the Win32 window source. Display options are ignored.
func NewBackend(Options) (*WindowsBackend, error) {
	return &WindowsBackend{}, nil
}

type enumState struct {
	seen    map[uint32]bool
	windows []Window
}

// EnumWindows callbacks are a finite resource, so one is shared by every call
// and the per-call state travels through lParam.
var (
	enumCallbackOnce sync.Once
	enumCallback     uintptr
)

func enumWindowsProc(hwnd windows.HWND, lparam uintptr) uintptr {
	state := (*enumState)(unsafe.Pointer(lparam))

	if !windows.IsWindowVisible(hwnd) {
		return 1
	}
	if owner, _, _ := procGetWindow.Call(uintptr(hwnd), gwOwner); owner != 0 {
		return 1
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return 1
	}
	if state.seen[pid] {
		return 1
	}
	state.seen[pid] = true

	state.windows = append(state.windows, Window{
		ID:    WindowID(hwnd),
		PID:   int(pid),
		Title: windowText(hwnd),
	})
	return 1
}

// Windows returns the first visible, unowned top-level window of each process.
func (b *WindowsBackend) Windows() ([]Window, error) {
	enumCallbackOnce.Do(func() {
		enumCallback = windows.NewCallback(enumWindowsProc)
	})

	state := &enumState{seen: make(map[uint32]bool)}
	if err := windows.EnumWindows(enumCallback, unsafe.Pointer(state)); err != nil {
		return nil, fmt.Errorf("enum windows: %w", err)
	}
	return state.windows, nil
}

// Open acquires a limited-information process handle for the window's owner.
func (b *WindowsBackend) Open(w Window) (Handle, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(w.PID))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", w.PID, err)
	}

	name, err := imageBaseName(proc)
	if err != nil {
		windows.CloseHandle(proc)
		return nil, fmt.Errorf("query image name for process %d: %w", w.PID, err)
	}

	return &win32Handle{hwnd: windows.HWND(w.ID), proc: proc, name: name}, nil
}

func imageBaseName(proc windows.Handle) (string, error) {
	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(proc, 0, &buf[0], &size); err != nil {
		return "", err
	}
	base := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

func windowText(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLen.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	count, _, _ := procGetWindowText.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if count == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:count])
}

type win32Handle struct {
	hwnd windows.HWND
	proc windows.Handle
	name string
}

func (h *win32Handle) ProcessName() string {
	return h.name
}

func (h *win32Handle) ClientRect() (Rect, error) {
	var r win32Rect
	ok, _, err := procGetClientRect.Call(uintptr(h.hwnd), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, fmt.Errorf("GetClientRect: %w", err)
	}
	return Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}, nil
}

func (h *win32Handle) ClientToScreen(x, y int) (int, int, error) {
	p := win32Point{X: int32(x), Y: int32(y)}
	ok, _, err := procClientToScreen.Call(uintptr(h.hwnd), uintptr(unsafe.Pointer(&p)))
	if ok == 0 {
		return 0, 0, fmt.Errorf("ClientToScreen: %w", err)
	}
	return int(p.X), int(p.Y), nil
}

func (h *win32Handle) Close() error {
	if h.proc == 0 {
		return nil
	}
	err := windows.CloseHandle(h.proc)
	h.proc = 0
	return err
}
