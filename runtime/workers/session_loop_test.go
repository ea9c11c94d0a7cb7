package workers

import (
	"context"
	"log/slog"
	"practice-lab/errors"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestSessionLoop_Runs_Tasks_In_Order(t *testing.T) {
	req := require.New(t)
	loop := NewSessionLoop("test", 8, logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var order []int
	for i := range 5 {
		loop.Post(func() { order = append(order, i) })
	}
	err := loop.Do(ctx, func() error {
		order = append(order, 99)
		return nil
	})

	req.NoError(err)
	req.Equal([]int{0, 1, 2, 3, 4, 99}, order)
}

func TestSessionLoop_Do_Returns_Task_Error(t *testing.T) {
	req := require.New(t)
	loop := NewSessionLoop("test", 1, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	err := loop.Do(ctx, func() error { return errors.ErrSessionEnded })
	req.ErrorIs(err, errors.ErrSessionEnded)
}

func TestSessionLoop_Stopped_Loop_Rejects_Work(t *testing.T) {
	req := require.New(t)
	loop := NewSessionLoop("test", 0, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(finished)
	}()

	// When the loop context is cancelled
	cancel()
	<-finished

	// Then commands fail and callbacks are dropped without blocking
	err := loop.Do(context.Background(), func() error { return nil })
	req.ErrorIs(err, errors.ErrLoopStopped)

	posted := make(chan struct{})
	go func() {
		loop.Post(func() {})
		close(posted)
	}()
	select {
	case <-posted:
	case <-time.After(time.Second):
		req.Fail("Post blocked on a stopped loop")
	}
}

func TestSessionLoop_Do_Honours_Caller_Context(t *testing.T) {
	req := require.New(t)
	// Never started, unbuffered: nothing will pick the task up
	loop := NewSessionLoop("idle", 0, slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Do(ctx, func() error { return nil })
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestSessionLoop_Do_Survives_Panicking_Task(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	loop := NewSessionLoop("panicky", 1, log)
	sup := NewSupervisor(log, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		sup.Wait()
	}()

	// Given a loop running under the supervisor
	sup.Start(ctx, loop)

	// When a command panics
	result := make(chan error, 1)
	go func() {
		result <- loop.Do(context.Background(), func() error { panic("sink exploded") })
	}()

	// Then the caller gets an error instead of waiting forever
	select {
	case err := <-result:
		req.ErrorIs(err, errors.ErrWorkerPanic)
	case <-time.After(time.Second):
		req.Fail("Do still blocked after the task panicked")
	}

	// And the restarted loop keeps serving commands
	req.NoError(loop.Do(context.Background(), func() error { return nil }))
}
