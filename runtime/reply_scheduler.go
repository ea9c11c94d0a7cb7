package runtime

import (
	"fmt"
	"log/slog"
	"practice-lab/contract"
	"practice-lab/domain"
	"practice-lab/errors"
	"time"
)

// ReplyHandle identifies a scheduled counterpart reply.
type ReplyHandle struct {
	timer contract.TimerID
	DueAt time.Time
}

// ReplyScheduler keeps at most one simulated reply in flight.
// Delivery goes to the sink given at construction, with a non-nil error
// when the reply could not be produced.
type ReplyScheduler struct {
	clock       contract.Clock
	sink        func(domain.Message, error)
	outstanding *ReplyHandle
	log         *slog.Logger
}

func NewReplyScheduler(clock contract.Clock, sink func(domain.Message, error), log *slog.Logger) *ReplyScheduler {
	return &ReplyScheduler{clock: clock, sink: sink, log: log}
}

// ScheduleReply registers a one-shot reply fired after delay.
// produce is called at fire time, not now.
func (s *ReplyScheduler) ScheduleReply(delay time.Duration, produce func() string) (ReplyHandle, error) {
	if s.outstanding != nil {
		return ReplyHandle{}, fmt.Errorf("%w: due at %s",
			errors.ErrAlreadyScheduled, s.outstanding.DueAt.Format(time.RFC3339Nano))
	}
	handle := ReplyHandle{DueAt: s.clock.Now().Add(delay)}
	// The callback compares against the slot, so a handle cancelled
	// after the timer already fired does nothing.
	var timer contract.TimerID
	timer = s.clock.ScheduleOnce(delay, func() { s.fire(timer, produce) })
	handle.timer = timer
	s.outstanding = &handle
	s.log.Debug("Reply scheduled", "due_at", handle.DueAt)
	return handle, nil
}

// Cancel drops the reply if it is still outstanding.
// Late or unknown handles are ignored.
func (s *ReplyScheduler) Cancel(handle ReplyHandle) {
	if s.outstanding == nil || s.outstanding.timer != handle.timer {
		return
	}
	s.clock.Cancel(handle.timer)
	s.outstanding = nil
	s.log.Debug("Reply cancelled")
}

func (s *ReplyScheduler) Outstanding() (ReplyHandle, bool) {
	if s.outstanding == nil {
		return ReplyHandle{}, false
	}
	return *s.outstanding, true
}

func (s *ReplyScheduler) fire(timer contract.TimerID, produce func() string) {
	if s.outstanding == nil || s.outstanding.timer != timer {
		s.log.Debug("Stale reply timer ignored")
		return
	}
	// Cleared before the sink runs so the sink may schedule again.
	s.outstanding = nil
	s.sink(s.build(produce))
}

func (s *ReplyScheduler) build(produce func() string) (reply domain.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrReplyFailed, r)
		}
	}()
	return domain.NewMessage(domain.SenderCounterpart, produce(), s.clock.Now()), nil
}
