package hotkeys

import (
	"errors"
	"slices"
	"testing"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/submit"
)

type countingToggler struct {
	calls int
	err   error
}

func (c *countingToggler) ToggleSubmission() (submit.Status, error) {
	c.calls++
	if c.err != nil {
		return submit.Status{}, c.err
	}
	return submit.Status{Active: c.calls%2 == 1, SessionID: 500}, nil
}

func TestLockModCombinations(t *testing.T) {
	tests := []struct {
		name  string
		masks []uint16
		want  []uint16
	}{
		{name: "caps only", masks: []uint16{2, 0, 0}, want: []uint16{0, 2}},
		{name: "caps and numlock", masks: []uint16{2, 16, 0}, want: []uint16{0, 2, 16, 18}},
		{name: "duplicates collapse", masks: []uint16{2, 2, 16}, want: []uint16{0, 2, 16, 18}},
		{name: "three locks", masks: []uint16{2, 16, 128}, want: []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lockModCombinations(tt.masks...)
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("lockModCombinations(%v) = %v, want %v", tt.masks, got, tt.want)
			}
		})
	}
}

func TestNewHandlerRequiresX11Backend(t *testing.T) {
	if _, err := NewHandler(struct{}{}, &countingToggler{}, nil); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("NewHandler() error = %v, want ErrNoDisplay", err)
	}
}

func TestOnToggleCallsToggler(t *testing.T) {
	tg := &countingToggler{}
	h := &Handler{toggler: tg, logger: logging.Discard()}

	h.onToggle("Mod4-w")
	h.onToggle("Mod4-w")
	if tg.calls != 2 {
		t.Fatalf("toggle calls = %d, want 2", tg.calls)
	}

	tg.err = errors.New("submission_endpoint_url is not configured")
	h.onToggle("Mod4-w")
	if tg.calls != 3 {
		t.Fatalf("toggle calls = %d, want 3", tg.calls)
	}
}
