// Package hotkeys binds the global submission toggle key on X11.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrNoDisplay is returned when the backend has no X11 connection to grab keys on.
var ErrNoDisplay = errors.New("hotkeys: backend has no X11 display")

// Toggler flips submission on or off with the configured settings.
type Toggler interface {
	ToggleSubmission() (submit.Status, error)
}

// x11Accessor is implemented by backends that expose their X11 connection.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler owns the key grabs on the root window.
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	toggler Toggler
	logger  *slog.Logger

	mu    sync.Mutex
	bound []string
}

var ignoreModsOnce sync.Once

// NewHandler returns a handler for backend, which must expose an X11
// connection.
func NewHandler(backend any, toggler Toggler, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, ErrNoDisplay
	}
	xu := accessor.XUtil()

	// Grabs must match with CapsLock/NumLock/ScrollLock engaged.
	ignoreModsOnce.Do(func() {
		xevent.IgnoreMods = lockModCombinations(
			uint16(xproto.ModMaskLock),
			modMaskForKeysym(xu, "Num_Lock"),
			modMaskForKeysym(xu, "Scroll_Lock"),
		)
	})

	return &Handler{
		xu:      xu,
		root:    accessor.RootWindow(),
		toggler: toggler,
		logger:  logging.OrDiscard(logger),
	}, nil
}

// RegisterToggle binds keySequence (e.g. "Mod4-Mod1-w") to a submission toggle.
func (h *Handler) RegisterToggle(keySequence string) error {
	if keySequence == "" {
		return errors.New("hotkeys: empty key sequence")
	}
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.onToggle(keySequence)
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to bind %q: %w", keySequence, err)
	}

	h.mu.Lock()
	h.bound = append(h.bound, keySequence)
	h.mu.Unlock()
	h.logger.Info("toggle hotkey registered", "keys", keySequence)
	return nil
}

// Bound returns the registered key sequences.
func (h *Handler) Bound() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.bound...)
}

func (h *Handler) onToggle(keySequence string) {
	st, err := h.toggler.ToggleSubmission()
	if err != nil {
		h.logger.Warn("toggle hotkey failed", "keys", keySequence, "error", err)
		return
	}
	if st.Active {
		h.logger.Info("submission enabled by hotkey", "session_id", st.SessionID, "endpoint", st.Endpoint)
	} else {
		h.logger.Info("submission disabled by hotkey")
	}
}

// lockModCombinations returns every subset of the distinct non-zero lock
// masks, including the empty set.
func lockModCombinations(masks ...uint16) []uint16 {
	var base []uint16
	seen := map[uint16]bool{0: true}
	for _, m := range masks {
		if m == 0 || seen[m] {
			continue
		}
		seen[m] = true
		base = append(base, m)
	}

	out := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
