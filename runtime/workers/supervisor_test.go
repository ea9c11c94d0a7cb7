package workers

import (
	"context"
	"log/slog"
	"practice-lab/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// waitFor fails the test when the supervisor does not drain in time.
func waitFor(t *testing.T, sup *Supervisor, timeout time.Duration, msg string) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		sup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	workerMock := mocks.NewMockWorker(ctrl)

	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(log, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Waiting for panics and restarts
	sup.Start(ctx, workerMock)
	waitFor(t, sup, time.Second, "Supervisor did not stop after its context expired")
	req.GreaterOrEqual(calls.Load(), int32(2))
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(log, 0)
	sup.Start(context.Background(), workerMock)

	// Then supervisor detected a success and did not restart it
	waitFor(t, sup, 500*time.Millisecond, "Supervisor should have stopped after worker success")
}

func TestSupervisor_Stop_Cancels_Started_Workers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	first := mocks.NewMockWorker(ctrl)
	second := mocks.NewMockWorker(ctrl)
	var running atomic.Int32

	blockUntilCancel := func(ctx context.Context) error {
		running.Add(1)
		<-ctx.Done()
		return ctx.Err()
	}
	first.EXPECT().Run(gomock.Any()).DoAndReturn(blockUntilCancel).Times(1)
	second.EXPECT().Run(gomock.Any()).DoAndReturn(blockUntilCancel).Times(1)

	// Given two workers started under a context nobody cancels
	sup := NewSupervisor(slog.Default(), 0)
	sup.Start(context.Background(), first)
	sup.Start(context.Background(), second)
	req.Eventually(func() bool { return running.Load() == 2 }, time.Second, 5*time.Millisecond)

	// When the supervisor is stopped
	sup.Stop()

	// Then both workers return
	waitFor(t, sup, 500*time.Millisecond, "Supervisor did not stop its workers")
}

func TestSupervisor_Start_After_Stop_Does_Not_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	workerMock := mocks.NewMockWorker(ctrl)
	workerMock.EXPECT().Run(gomock.Any()).Times(0)

	sup := NewSupervisor(slog.Default(), 0)
	sup.Stop()
	sup.Start(context.Background(), workerMock)

	waitFor(t, sup, 500*time.Millisecond, "Worker started after Stop kept running")
}
