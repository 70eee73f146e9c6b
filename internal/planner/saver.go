package planner

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before pending changes are written.
const DefaultDebounce = 1500 * time.Millisecond

// Saver runs flush once mutations have been quiet for delay. Every Schedule
// pushes the deadline back; flushes never overlap.
type Saver struct {
	delay time.Duration
	flush func() error

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	running sync.Mutex
}

// NewSaver returns a saver calling flush. A non-positive delay flushes on the
// next tick of the runtime timer.
func NewSaver(delay time.Duration, flush func() error) *Saver {
	if delay < 0 {
		delay = 0
	}
	return &Saver{delay: delay, flush: flush}
}

// Schedule (re)arms the timer.
func (s *Saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		// superseded by a later Schedule, Flush or Stop
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		s.run()
	})
}

// Pending reports whether a flush is scheduled.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Flush cancels the pending timer and flushes now.
func (s *Saver) Flush() error {
	s.cancel()
	return s.run()
}

// Stop cancels the pending timer without flushing.
func (s *Saver) Stop() {
	s.cancel()
}

func (s *Saver) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Saver) run() error {
	s.running.Lock()
	defer s.running.Unlock()
	return s.flush()
}
