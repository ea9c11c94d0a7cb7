package clock

import (
	"practice-lab/contract"
	"time"
)

type serialized struct {
	inner contract.Clock
	post  func(func())
}

// Serialize returns a Clock whose callbacks are handed to post instead of
// being run where the inner clock fires them. Session loops use it to run
// reply delivery on their own goroutine.
func Serialize(inner contract.Clock, post func(func())) contract.Clock {
	return serialized{inner: inner, post: post}
}

func (s serialized) Now() time.Time { return s.inner.Now() }

func (s serialized) ScheduleOnce(delay time.Duration, fn func()) contract.TimerID {
	return s.inner.ScheduleOnce(delay, func() { s.post(fn) })
}

func (s serialized) Cancel(id contract.TimerID) { s.inner.Cancel(id) }
