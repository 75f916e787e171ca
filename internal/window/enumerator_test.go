package window

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/1broseidon/winpos/internal/platform"
)

type fakeProc struct {
	name    string
	title   string
	x, y    int
	w, h    int
	openErr error
	rectErr error
}

type fakeSource struct {
	procs   []fakeProc
	listErr error

	mu     sync.Mutex
	opened int
	closed int
}

func (s *fakeSource) Windows() ([]platform.Window, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]platform.Window, 0, len(s.procs))
	for i, p := range s.procs {
		out = append(out, platform.Window{ID: platform.WindowID(i + 1), PID: 1000 + i, Title: p.title})
	}
	return out, nil
}

func (s *fakeSource) Open(w platform.Window) (platform.Handle, error) {
	p := s.procs[w.PID-1000]
	if p.openErr != nil {
		return nil, p.openErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &fakeHandle{src: s, proc: p}, nil
}

type fakeHandle struct {
	src  *fakeSource
	proc fakeProc
}

func (h *fakeHandle) ProcessName() string { return h.proc.name }

func (h *fakeHandle) ClientRect() (platform.Rect, error) {
	if h.proc.rectErr != nil {
		return platform.Rect{}, h.proc.rectErr
	}
	return platform.Rect{Right: h.proc.w, Bottom: h.proc.h}, nil
}

func (h *fakeHandle) ClientToScreen(x, y int) (int, int, error) {
	return h.proc.x + x, h.proc.y + y, nil
}

func (h *fakeHandle) Close() error {
	h.src.mu.Lock()
	h.src.closed++
	h.src.mu.Unlock()
	return nil
}

func TestEnumerateSyntheticTable(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "a", x: 10, y: 10, w: 100, h: 100},
		{name: "b", x: 0, y: 0, w: 0, h: 0},
		{name: "c", x: 5, y: 5, w: 50, h: 50},
	}}

	got := New(src, nil).Enumerate()
	if len(got) != 2 {
		t.Fatalf("len(Enumerate()) = %d, want 2: %+v", len(got), got)
	}
	if got[0].ProcessName != "a" || got[1].ProcessName != "c" {
		t.Fatalf("names = [%q %q], want [a c]", got[0].ProcessName, got[1].ProcessName)
	}
	want := WindowInfo{PID: 1000, ProcessName: "a", X: 10, Y: 10, W: 100, H: 100}
	if got[0] != want {
		t.Fatalf("got[0] = %+v, want %+v", got[0], want)
	}
	if got[1].X != 5 || got[1].Y != 5 || got[1].W != 50 || got[1].H != 50 {
		t.Fatalf("got[1] = %+v, want geometry (5,5,50,50)", got[1])
	}
}

func TestEnumerateDropsNonPositiveArea(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "zero-w", w: 0, h: 10},
		{name: "zero-h", w: 10, h: 0},
		{name: "negative", w: -5, h: 20},
		{name: "ok", w: 1, h: 1},
	}}

	got := New(src, nil).Enumerate()
	for _, info := range got {
		if info.W <= 0 || info.H <= 0 {
			t.Fatalf("entry %+v has non-positive area", info)
		}
	}
	if len(got) != 1 || got[0].ProcessName != "ok" {
		t.Fatalf("Enumerate() = %+v, want only \"ok\"", got)
	}
}

func TestEnumerateSortsByNameStably(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "zsh", title: "first", w: 10, h: 10},
		{name: "Xorg", w: 10, h: 10},
		{name: "alpha", w: 10, h: 10},
		{name: "zsh", title: "second", w: 10, h: 10},
		{name: "beta", w: 10, h: 10},
	}}

	e := New(src, nil)
	got := e.Enumerate()
	names := make([]string, len(got))
	for i, info := range got {
		names[i] = info.ProcessName
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
	// Ordinal comparison puts upper case first.
	if names[0] != "Xorg" {
		t.Fatalf("names[0] = %q, want %q", names[0], "Xorg")
	}
	if got[3].WindowTitle != "first" || got[4].WindowTitle != "second" {
		t.Fatalf("tie order = [%q %q], want [first second]", got[3].WindowTitle, got[4].WindowTitle)
	}

	again := e.Enumerate()
	if len(again) != len(got) {
		t.Fatalf("second Enumerate() len = %d, want %d", len(again), len(got))
	}
	for i := range got {
		if again[i].ProcessName != got[i].ProcessName || again[i].WindowTitle != got[i].WindowTitle {
			t.Fatalf("second Enumerate()[%d] = %+v, want %+v", i, again[i], got[i])
		}
	}
}

func TestEnumerateSkipsFailedQueries(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "exited", w: 10, h: 10, openErr: errors.New("no such process")},
		{name: "broken", w: 10, h: 10, rectErr: errors.New("bad window")},
		{name: "ok", w: 10, h: 10},
	}}

	got := New(src, nil).Enumerate()
	if len(got) != 1 || got[0].ProcessName != "ok" {
		t.Fatalf("Enumerate() = %+v, want only \"ok\"", got)
	}
}

func TestEnumerateClosesEveryOpenedHandle(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "a", w: 10, h: 10},
		{name: "hidden", w: 0, h: 0},
		{name: "broken", w: 10, h: 10, rectErr: errors.New("bad window")},
		{name: "exited", openErr: errors.New("gone")},
	}}

	e := New(src, nil)
	for i := 0; i < 5; i++ {
		e.Enumerate()
	}
	if src.opened != 15 {
		t.Fatalf("opened = %d, want 15", src.opened)
	}
	if src.closed != src.opened {
		t.Fatalf("closed = %d, want %d", src.closed, src.opened)
	}
}

func TestEnumerateListingErrorYieldsEmptySnapshot(t *testing.T) {
	src := &fakeSource{listErr: errors.New("display gone")}

	got := New(src, nil).Enumerate()
	if got == nil {
		t.Fatalf("Enumerate() = nil, want empty non-nil snapshot")
	}
	if len(got) != 0 {
		t.Fatalf("len(Enumerate()) = %d, want 0", len(got))
	}
}

func TestEnumerateConcurrentCalls(t *testing.T) {
	src := &fakeSource{procs: []fakeProc{
		{name: "b", w: 10, h: 10},
		{name: "a", w: 10, h: 10},
	}}
	e := New(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Enumerate()
			if len(got) != 2 || got[0].ProcessName != "a" {
				t.Errorf("Enumerate() = %+v, want [a b]", got)
			}
		}()
	}
	wg.Wait()
}

func TestWindowInfoJSONKeys(t *testing.T) {
	data, err := json.Marshal(WindowInfo{PID: 7, ProcessName: "term", WindowTitle: "t", X: 1, Y: 2, W: 3, H: 4})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"pid":7,"processName":"term","windowTitle":"t","x":1,"y":2,"w":3,"h":4}`
	if string(data) != want {
		t.Fatalf("Marshal() = %s, want %s", data, want)
	}
}
