// Package clock provides the time sources consumed by practice sessions.
package clock

import (
	"practice-lab/contract"
	"sync"
	"time"
)

// System is a Clock backed by the runtime timers.
// Callbacks run on the timer goroutine; wrap it with Serialize
// when the consumer is single-threaded.
type System struct {
	mu     sync.Mutex
	next   contract.TimerID
	timers map[contract.TimerID]*time.Timer
}

func NewSystem() *System {
	return &System{timers: make(map[contract.TimerID]*time.Timer)}
}

func (s *System) Now() time.Time {
	return time.Now()
}

func (s *System) ScheduleOnce(delay time.Duration, fn func()) contract.TimerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := s.next
	// The lock is held until the timer is registered, so the callback
	// always finds its own entry.
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, ok := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if ok {
			fn()
		}
	})
	return id
}

func (s *System) Cancel(id contract.TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of timers that have neither fired nor been cancelled.
func (s *System) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
