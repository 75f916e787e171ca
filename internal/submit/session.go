package submit

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	minSessionID = 100
	maxSessionID = 999
)

// Session is one continuous Active period of the controller.
type Session struct {
	ID        int
	Interval  time.Duration
	Endpoint  string
	StartedAt time.Time
}

// Status is the read model presentation layers render.
type Status struct {
	Active     bool      `json:"active"`
	SessionID  int       `json:"sessionId,omitempty"`
	IntervalMs int64     `json:"intervalMs,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	Ticks      int64     `json:"ticks"`
	Failures   int64     `json:"failures"`
	LastError  string    `json:"lastError,omitempty"`
}

// sessionState carries the per-session counters so late deliveries from a
// previous session never touch the current one.
type sessionState struct {
	Session

	ticks    atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex
	lastErr string
}

func (s *sessionState) recordFailure(err error) {
	s.failures.Add(1)
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *sessionState) status() Status {
	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()

	return Status{
		Active:     true,
		SessionID:  s.ID,
		IntervalMs: s.Interval.Milliseconds(),
		Endpoint:   s.Endpoint,
		StartedAt:  s.StartedAt,
		Ticks:      s.ticks.Load(),
		Failures:   s.failures.Load(),
		LastError:  lastErr,
	}
}

// newSessionID draws uniformly from [100, 999]. intn must behave like
// rand.IntN.
func newSessionID(intn func(int) int) int {
	return minSessionID + intn(maxSessionID-minSessionID+1)
}
