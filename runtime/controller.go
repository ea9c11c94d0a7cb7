package runtime

import (
	"fmt"
	"log/slog"
	"practice-lab/contract"
	"practice-lab/domain"
	"practice-lab/errors"
	"strings"
	"time"
)

// Controller is the state machine behind one practice session.
//
// It is the only writer of the session state: the message log, the input
// buffer, the drawer and keyboard flags and the outstanding reply. Commands
// must be issued from a single goroutine, and the clock must deliver its
// callbacks on that same goroutine (see workers.SessionLoop).
//
// After each command that changed something, subscribers receive an
// immutable snapshot synchronously.
type Controller struct {
	info       domain.SessionInfo
	clock      contract.Clock
	producer   contract.ReplyProducer
	replyDelay time.Duration
	store      *MessageStore
	scheduler  *ReplyScheduler
	log        *slog.Logger

	pendingInput    string
	infoVisible     bool
	keyboardVisible bool
	ended           bool
	sinks           []contract.StateSink
}

type ControllerConfig struct {
	Info       domain.SessionInfo
	Initial    []domain.Message
	Clock      contract.Clock
	Producer   contract.ReplyProducer
	ReplyDelay time.Duration
}

func NewController(cfg ControllerConfig, log *slog.Logger) (*Controller, error) {
	store, err := NewMessageStore(cfg.Initial)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		info:       cfg.Info,
		clock:      cfg.Clock,
		producer:   cfg.Producer,
		replyDelay: cfg.ReplyDelay,
		store:      store,
		log:        log,
	}
	c.scheduler = NewReplyScheduler(cfg.Clock, c.deliverReply, log)
	return c, nil
}

func (c *Controller) Info() domain.SessionInfo {
	return c.info
}

func (c *Controller) Subscribe(sink contract.StateSink) {
	c.sinks = append(c.sinks, sink)
}

func (c *Controller) Phase() domain.Phase {
	if _, ok := c.scheduler.Outstanding(); ok {
		return domain.PhaseAwaitingReply
	}
	return domain.PhaseIdle
}

// State returns a snapshot of the session.
func (c *Controller) State() domain.SessionState {
	state := domain.SessionState{
		Messages:        c.store.All(),
		PendingInput:    c.pendingInput,
		InfoVisible:     c.infoVisible,
		KeyboardVisible: c.keyboardVisible,
		Phase:           c.Phase(),
		Ended:           c.ended,
	}
	if handle, ok := c.scheduler.Outstanding(); ok {
		state.OutstandingReply = &domain.PendingReply{DueAt: handle.DueAt}
	}
	return state
}

func (c *Controller) UpdateInput(text string) error {
	if c.ended {
		return errors.ErrSessionEnded
	}
	if text == c.pendingInput {
		return nil
	}
	c.pendingInput = text
	c.publish()
	return nil
}

// Submit sends the pending input as a user message.
// Blank input is ignored, the way a disabled send button would.
func (c *Controller) Submit() error {
	if c.ended {
		return errors.ErrSessionEnded
	}
	content := strings.TrimSpace(c.pendingInput)
	if content == "" {
		return nil
	}
	msg := domain.NewMessage(domain.SenderUser, content, c.clock.Now())
	if _, err := c.store.Append(msg); err != nil {
		return err
	}
	c.pendingInput = ""

	if c.Phase() == domain.PhaseIdle {
		if _, err := c.scheduler.ScheduleReply(c.replyDelay, c.produceReply); err != nil {
			c.publish()
			return fmt.Errorf("scheduling reply: %w", err)
		}
	} else {
		c.log.Debug("Reply already pending, user message recorded only")
	}
	c.publish()
	return nil
}

func (c *Controller) OpenInfo() error {
	return c.setInfoVisible(true)
}

func (c *Controller) CloseInfo() error {
	return c.setInfoVisible(false)
}

// ReportKeyboardVisibility mirrors the platform keyboard state.
// It never affects the message flow.
func (c *Controller) ReportKeyboardVisibility(visible bool) error {
	if c.ended {
		return errors.ErrSessionEnded
	}
	if c.keyboardVisible == visible {
		return nil
	}
	c.keyboardVisible = visible
	c.publish()
	return nil
}

// End closes the session and hands back the final log.
// The outstanding reply, if any, is cancelled and the input is discarded.
func (c *Controller) End() ([]domain.Message, error) {
	if c.ended {
		return nil, errors.ErrSessionEnded
	}
	if handle, ok := c.scheduler.Outstanding(); ok {
		c.scheduler.Cancel(handle)
	}
	c.ended = true
	c.pendingInput = ""
	c.publish()
	c.log.Info("Session ended", "title", c.info.Title, "messages", c.store.Len())
	return c.store.All(), nil
}

func (c *Controller) setInfoVisible(visible bool) error {
	if c.ended {
		return errors.ErrSessionEnded
	}
	if c.infoVisible == visible {
		return nil
	}
	c.infoVisible = visible
	c.publish()
	return nil
}

func (c *Controller) produceReply() string {
	return c.producer.Produce(c.store.All())
}

// deliverReply is the scheduler sink. The phase is back to idle whatever
// happened to the reply, so a snapshot is published either way.
func (c *Controller) deliverReply(reply domain.Message, err error) {
	if c.ended {
		c.log.Debug("Reply dropped, session already ended")
		return
	}
	if err != nil {
		c.log.Error("Reply could not be produced", "error", err)
	} else if _, err := c.store.Append(reply); err != nil {
		c.log.Error("Reply could not be recorded", "error", err)
	}
	c.publish()
}

func (c *Controller) publish() {
	if len(c.sinks) == 0 {
		return
	}
	state := c.State()
	for _, sink := range c.sinks {
		sink.OnStateChange(state.Clone())
	}
}
