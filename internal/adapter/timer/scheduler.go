package timer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/project-registry/internal/clock"
	"github.com/alanyang/project-registry/internal/domain/activation"
	porttimer "github.com/alanyang/project-registry/internal/port/timer"
)

var _ porttimer.Scheduler = (*Scheduler)(nil)

// Scheduler implements port/timer.Scheduler on top of a clock.Clock.
// Timers live in memory only; a restart drops every pending callback.
type Scheduler struct {
	clock clock.Clock

	mu     sync.Mutex
	timers map[activation.Handle]*clock.Timer
}

func New(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clock:  clk,
		timers: make(map[activation.Handle]*clock.Timer),
	}
}

func (s *Scheduler) Schedule(delay time.Duration, fn func()) activation.Handle {
	handle := uuid.New()

	// Reserve the slot first: a zero delay on the real clock may fire before
	// AfterFunc returns, and the callback must find (and clear) its entry.
	s.mu.Lock()
	s.timers[handle] = nil
	s.mu.Unlock()

	t := s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()
		fn()
	})

	s.mu.Lock()
	_, live := s.timers[handle]
	if live {
		s.timers[handle] = t
	}
	s.mu.Unlock()

	// Cancelled between the reservation and AfterFunc returning. Stop is a
	// no-op if the callback already ran.
	if !live {
		t.Stop()
	}
	return handle
}

func (s *Scheduler) Cancel(h activation.Handle) bool {
	s.mu.Lock()
	t, ok := s.timers[h]
	delete(s.timers, h)
	s.mu.Unlock()

	if !ok {
		return false
	}
	if t == nil {
		// Schedule has not stored the timer yet and will stop it itself.
		return true
	}
	return t.Stop()
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending callback. Used on shutdown.
func (s *Scheduler) Stop() int {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[activation.Handle]*clock.Timer)
	s.mu.Unlock()

	stopped := 0
	for _, t := range timers {
		if t != nil && t.Stop() {
			stopped++
		}
	}
	return stopped
}
