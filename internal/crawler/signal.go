package crawler

import "sync"

// Signal is a one-shot readiness latch. The ladder crawler sets it after
// seeding the first bootstrap player of a main region; the paired match
// crawler observes it instead of hammering the store. Set is idempotent and
// safe across goroutines.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal returns an unset Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set latches the signal. Subsequent calls are no-ops.
func (s *Signal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// Ready returns a channel closed once the signal has been set.
func (s *Signal) Ready() <-chan struct{} {
	return s.ch
}

// IsSet reports whether the signal has fired without blocking.
func (s *Signal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
