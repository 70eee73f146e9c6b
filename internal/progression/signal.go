package progression

import (
	"sync"
	"time"
)

// DefaultSignalDuration is how long a level-up or rank-up indicator stays visible.
const DefaultSignalDuration = 4 * time.Second

// Signal is a transient flag that clears itself after a fixed duration.
// Firing while a clear is pending replaces the pending clear.
type Signal struct {
	mu       sync.Mutex
	duration time.Duration
	active   bool
	value    int
	timer    *time.Timer
	gen      uint64
}

// NewSignal creates a signal that stays active for duration after each Fire.
func NewSignal(duration time.Duration) *Signal {
	if duration <= 0 {
		duration = DefaultSignalDuration
	}
	return &Signal{duration: duration}
}

// Fire activates the signal carrying value and (re)arms the auto-clear timer.
func (s *Signal) Fire(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.active = true
	s.value = value

	s.timer = time.AfterFunc(s.duration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A later Fire or Stop owns the flag now
		if s.gen != gen {
			return
		}
		s.active = false
		s.timer = nil
	})
}

// Active reports whether the signal is showing and the value it fired with.
func (s *Signal) Active() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.value
}

// Stop clears the signal immediately and cancels any pending clear.
func (s *Signal) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.active = false
	s.value = 0
}
