//go:build windows

package platform

import (
	"os"
	"testing"
)

func TestWindowTextOfNullWindowIsEmpty(t *testing.T) {
	if got := windowText(0); got != "" {
		t.Fatalf("windowText(0) = %q, want empty", got)
	}
}

func TestWindowsBackendListsOneWindowPerProcess(t *testing.T) {
	b, err := NewBackend(Options{})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	wins, err := b.Windows()
	if err != nil {
		t.Fatalf("Windows() error = %v", err)
	}
	seen := make(map[int]bool)
	for _, w := range wins {
		if seen[w.PID] {
			t.Fatalf("pid %d listed twice", w.PID)
		}
		seen[w.PID] = true
	}
}

func TestWindowsBackendOpenReadsProcessName(t *testing.T) {
	b, _ := NewBackend(Options{})

	h, err := b.Open(Window{PID: os.Getpid()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()
	if h.ProcessName() == "" {
		t.Fatalf("ProcessName() is empty, want the test binary name")
	}
}
