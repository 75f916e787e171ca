// Package runtimepath locates the per-user runtime directory and the daemon's
// IPC socket inside it.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// SocketEnv overrides the IPC socket path when set.
const SocketEnv = "WINPOS_SOCKET"

const socketName = "winpos.sock"

// Dir returns $XDG_RUNTIME_DIR, then /run/user/<uid> when it exists, then a
// private winpos-runtime-<uid> directory it creates under /tmp (the user temp
// dir on Windows).
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if runtime.GOOS != "windows" {
		runUser := filepath.Join("/run/user", uid)
		if info, err := os.Stat(runUser); err == nil && info.IsDir() {
			return runUser, nil
		}
	}

	base := "/tmp"
	if runtime.GOOS == "windows" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "winpos-runtime-"+uid)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns $WINPOS_SOCKET or the socket inside Dir.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}
