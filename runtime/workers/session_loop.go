package workers

import (
	"context"
	"fmt"
	"log/slog"
	"practice-lab/errors"
	"sync"
)

// SessionLoop is the single goroutine allowed to touch a session controller.
//
// Commands arrive through Do and timer callbacks through Post; both are
// executed one at a time, in arrival order, by Run. This is what lets the
// controller itself stay lock-free.
type SessionLoop struct {
	Name    string
	tasks   chan func()
	stopped chan struct{}
	once    sync.Once
	log     *slog.Logger
}

func NewSessionLoop(name string, bufferSize int, log *slog.Logger) *SessionLoop {
	return &SessionLoop{
		Name:    name,
		tasks:   make(chan func(), bufferSize),
		stopped: make(chan struct{}),
		log:     log,
	}
}

func (l *SessionLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.once.Do(func() { close(l.stopped) })
			l.log.Debug("Stopping session loop", "name", l.Name)
			return nil
		case task := <-l.tasks:
			task()
		}
	}
}

// Post enqueues fn without waiting for it to run.
// Anything posted after the loop stopped is dropped.
func (l *SessionLoop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.stopped:
		l.log.Debug("Task dropped, session loop stopped", "name", l.Name)
	}
}

// Do runs fn on the loop and waits for its result.
// A panic in fn is reported to the caller as ErrWorkerPanic, then
// propagated so the supervisor restarts the loop.
func (l *SessionLoop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
				panic(r)
			}
		}()
		result <- fn()
	}
	select {
	case l.tasks <- task:
	case <-l.stopped:
		return errors.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-l.stopped:
		select {
		case err := <-result:
			return err
		default:
			return errors.ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has stopped.
func (l *SessionLoop) Done() <-chan struct{} {
	return l.stopped
}
