package clock

import (
	"practice-lab/contract"
	"sync"
	"time"
)

type fakeTimer struct {
	id    contract.TimerID
	dueAt time.Time
	fn    func()
}

// Fake is a manually driven Clock for tests and simulations.
// Timers fire synchronously inside Advance, on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	next   contract.TimerID
	timers map[contract.TimerID]fakeTimer
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start, timers: make(map[contract.TimerID]fakeTimer)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) ScheduleOnce(delay time.Duration, fn func()) contract.TimerID {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	f.timers[f.next] = fakeTimer{id: f.next, dueAt: f.now.Add(delay), fn: fn}
	return f.next
}

func (f *Fake) Cancel(id contract.TimerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.timers, id)
}

// Advance moves the clock forward by d and fires every timer due on the way,
// earliest first. Timers scheduled by a callback fire too if they fall in the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		due, ok := f.earliestDue(target)
		if !ok {
			break
		}
		delete(f.timers, due.id)
		f.now = due.dueAt
		f.mu.Unlock()
		due.fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// Pending returns the number of timers not yet fired or cancelled.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) earliestDue(target time.Time) (fakeTimer, bool) {
	var (
		found fakeTimer
		ok    bool
	)
	for _, t := range f.timers {
		if t.dueAt.After(target) {
			continue
		}
		if !ok || t.dueAt.Before(found.dueAt) || (t.dueAt.Equal(found.dueAt) && t.id < found.id) {
			found, ok = t, true
		}
	}
	return found, ok
}
