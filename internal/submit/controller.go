// Package submit drives periodic delivery of window snapshots to a remote
// collector under a per-session identifier.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/window"
)

var (
	// ErrClosed is returned by Enable after Close.
	ErrClosed = errors.New("submission controller is closed")
	// ErrInvalidInterval is returned for a non-positive interval.
	ErrInvalidInterval = errors.New("submission interval must be positive")
	// ErrInvalidEndpoint is returned for an endpoint that is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid submission endpoint")
)

// DefaultTimeout bounds a single delivery when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a Controller. Zero values select defaults.
type Options struct {
	// Timeout bounds each POST.
	Timeout time.Duration
	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client *http.Client
	Logger *slog.Logger
	// IntN draws session ids; defaults to math/rand/v2.IntN.
	IntN func(n int) int
	Now  func() time.Time
}

// Controller owns the Idle/Active submission state and its schedule.
type Controller struct {
	snap    window.Snapshotter
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	intn    func(int) int
	now     func() time.Time

	mu      sync.Mutex
	session *sessionState
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool

	inflight sync.WaitGroup
}

// NewController returns an Idle controller that delivers snapshots from snap.
func NewController(snap window.Snapshotter, opts Options) *Controller {
	c := &Controller{
		snap:    snap,
		client:  opts.Client,
		timeout: opts.Timeout,
		logger:  logging.OrDiscard(opts.Logger),
		intn:    opts.IntN,
		now:     opts.Now,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	if c.intn == nil {
		c.intn = rand.IntN
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// SetSubmission enables or disables submission. intervalMs and endpoint are
// ignored when disabling.
func (c *Controller) SetSubmission(enabled bool, intervalMs int, endpoint string) error {
	if !enabled {
		c.Disable()
		return nil
	}
	_, err := c.Enable(time.Duration(intervalMs)*time.Millisecond, endpoint)
	return err
}

// Enable starts a new session. An Active controller is disabled first, so
// exactly one schedule is live afterwards and the session id is redrawn.
// The first delivery is dispatched immediately.
func (c *Controller) Enable(interval time.Duration, endpoint string) (Status, error) {
	endpoint, err := validateSettings(interval, endpoint)
	if err != nil {
		return Status{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enableLocked(interval, endpoint)
}

func validateSettings(interval time.Duration, endpoint string) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	return validateEndpoint(endpoint)
}

// enableLocked must be called with c.mu held.
func (c *Controller) enableLocked(interval time.Duration, endpoint string) (Status, error) {
	if c.closed {
		return Status{}, ErrClosed
	}
	c.stopLocked()

	s := &sessionState{Session: Session{
		ID:        newSessionID(c.intn),
		Interval:  interval,
		Endpoint:  endpoint,
		StartedAt: c.now(),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.session = s
	c.cancel = cancel
	c.done = done

	go c.run(ctx, s, done)

	c.logger.Info("submission enabled", "session_id", s.ID, "interval", interval, "endpoint", endpoint)
	return s.status(), nil
}

// Disable stops the schedule and returns once its goroutine has exited. No
// delivery is dispatched after Disable returns; in-flight ones run to
// completion. Disabling an Idle controller is a no-op.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Toggle disables an Active controller or enables an Idle one with the given
// settings, returning the resulting status. Settings are only validated when
// enabling.
func (c *Controller) Toggle(interval time.Duration, endpoint string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.stopLocked()
		return Status{}, nil
	}

	endpoint, err := validateSettings(interval, endpoint)
	if err != nil {
		return Status{}, err
	}
	return c.enableLocked(interval, endpoint)
}

// Status reports the current session, if any.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Status{}
	}
	return c.session.status()
}

// Close disables the controller, rejects further Enable calls, and waits for
// in-flight deliveries until ctx is done.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.stopLocked()
	c.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight deliveries: %w", ctx.Err())
	}
}

// stopLocked must be called with c.mu held.
func (c *Controller) stopLocked() {
	if c.session == nil {
		return
	}
	c.cancel()
	<-c.done

	c.logger.Info("submission disabled", "session_id", c.session.ID)
	c.session = nil
	c.cancel = nil
	c.done = nil
}

func (c *Controller) run(ctx context.Context, s *sessionState, done chan struct{}) {
	defer close(done)

	c.dispatch(s)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			c.dispatch(s)
		}
	}
}

// dispatch starts one delivery without waiting for it.
func (c *Controller) dispatch(s *sessionState) {
	s.ticks.Add(1)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.recordFailure(fmt.Errorf("panic: %v", r))
				c.logger.Error("delivery panicked", "session_id", s.ID, "panic", r)
			}
		}()
		c.deliver(s)
	}()
}

func (c *Controller) deliver(s *sessionState) {
	snapshot := c.snap.Enumerate()
	if snapshot == nil {
		snapshot = []window.WindowInfo{}
	}
	body, err := encodeSnapshot(snapshot)
	if err != nil {
		s.recordFailure(err)
		c.logger.Warn("delivery failed", "session_id", s.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	target := deliveryURL(s.Endpoint, s.ID)
	code, err := post(ctx, c.client, target, body)
	if err != nil {
		s.recordFailure(err)
		if isTransportError(err) {
			c.logger.Debug("delivery transport failure", "session_id", s.ID, "url", target, "error", err)
			return
		}
		c.logger.Warn("delivery failed", "session_id", s.ID, "url", target, "error", err)
		return
	}
	c.logger.Debug("delivered snapshot", "session_id", s.ID, "windows", len(snapshot), "status", code)
}
