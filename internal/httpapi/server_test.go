package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

func newTestServer(t *testing.T, snap []window.WindowInfo, st submit.Status) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		Address:  "127.0.0.1:0",
		Snapshot: window.SnapshotFunc(func() []window.WindowInfo { return snap }),
		Status:   func() submit.Status { return st },
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func TestGetWindows(t *testing.T) {
	srv := newTestServer(t, []window.WindowInfo{
		{PID: 9, ProcessName: "editor", WindowTitle: "main.go", X: 100, Y: 50, W: 800, H: 600},
	}, submit.Status{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/windows", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	want := `[{"pid":9,"processName":"editor","windowTitle":"main.go","x":100,"y":50,"w":800,"h":600}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestGetWindowsEmptySnapshotIsArray(t *testing.T) {
	srv := newTestServer(t, nil, submit.Status{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/windows", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestGetStatus(t *testing.T) {
	srv := newTestServer(t, nil, submit.Status{Active: true, SessionID: 777, IntervalMs: 1000, Endpoint: "http://c"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var st submit.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Active || st.SessionID != 777 {
		t.Fatalf("status = %+v", st)
	}
}

func TestNonGetIsRejected(t *testing.T) {
	srv := newTestServer(t, nil, submit.Status{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/windows", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s /windows status = %d, want 405", method, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /nope status = %d, want 404", rec.Code)
	}
}

func TestServeAndShutdown(t *testing.T) {
	srv := newTestServer(t, []window.WindowInfo{{PID: 1, ProcessName: "a", W: 1, H: 1}}, submit.Status{})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/windows")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"processName":"a"`) {
		t.Fatalf("body = %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve() did not return after cancel")
	}
}

func TestNewServerRequiresAddress(t *testing.T) {
	if _, err := NewServer(Config{Snapshot: window.SnapshotFunc(func() []window.WindowInfo { return nil })}); err == nil {
		t.Fatalf("NewServer() without address error = nil")
	}
}
