package services

import (
	"context"
	"fmt"
	"log/slog"
	"practice-lab/catalog"
	"practice-lab/clock"
	"practice-lab/domain"
	"practice-lab/errors"
	"practice-lab/mocks"
	"practice-lab/moderation"
	"practice-lab/runtime/workers"
	"practice-lab/sink"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testDelay = 1500 * time.Millisecond
	testReply = "嗯，我明白你的意思了。"
)

type fixture struct {
	service *PracticeService
	clock   *clock.Fake
	history *mocks.MockIHistoryRepository
	index   *mocks.MockITranscriptIndex
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clk := clock.NewFake(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	history := mocks.NewMockIHistoryRepository(ctrl)
	index := mocks.NewMockITranscriptIndex(ctrl)
	detector, err := moderation.NewDetector(catalog.RiskTerms)
	require.NoError(t, err)
	service := NewPracticeService(log, clk, catalog.Default(), history, index,
		workers.NewSupervisor(log, 10*time.Millisecond),
		Settings{ReplyDelay: testDelay, CannedReply: testReply, LoopBufferSize: 4, Detector: detector})
	t.Cleanup(service.Close)
	return fixture{service: service, clock: clk, history: history, index: index}
}

func waitForMessages(t *testing.T, timeline *sink.Timeline, n int) domain.SessionState {
	t.Helper()
	require.Eventually(t, func() bool {
		latest, ok := timeline.Latest()
		return ok && len(latest.Messages) == n
	}, time.Second, 5*time.Millisecond)
	latest, _ := timeline.Latest()
	return latest
}

func TestPracticeService_Practices(t *testing.T) {
	f := newFixture(t)
	require.Len(t, f.service.Practices(), 2)
}

func TestPracticeService_Start_Unknown_Practice(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Start(context.Background(), "404")
	require.ErrorIs(t, err, errors.ErrPracticeNotFound)
}

func TestPracticeService_Full_Session_Is_Archived(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	timeline := sink.NewTimeline()

	// Given a fast practice with its opening conversation
	session, err := f.service.Start(ctx, "1", timeline)
	req.NoError(err)
	state, err := session.State(ctx)
	req.NoError(err)
	req.Len(state.Messages, 3)
	req.Equal("AI患者-焦虑症（极速版）", session.Info().Title)
	req.Len(f.service.Running("1"), 1)

	// When the user answers
	req.NoError(session.Send(ctx, "我理解你的感受"))
	state = waitForMessages(t, timeline, 4)
	req.Equal(domain.PhaseAwaitingReply, state.Phase)

	// And the reply delay elapses
	f.clock.Advance(testDelay)

	// Then the counterpart answered through the session loop
	state = waitForMessages(t, timeline, 5)
	req.Equal(testReply, state.Messages[4].Content)
	req.Equal(domain.PhaseIdle, state.Phase)

	// When the session ends two minutes later
	f.clock.Advance(2 * time.Minute)
	f.history.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(record domain.HistoryRecord, transcript []domain.Message) error {
			req.Len(transcript, 5)
			return nil
		}).
		Times(1)
	f.index.EXPECT().Index(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	record, err := session.End(ctx)

	// Then the record describes the conversation
	req.NoError(err)
	req.Equal(session.ID, record.ID)
	req.Equal("1", record.PracticeID)
	req.Equal(5, record.MessageCount)
	req.Equal(2, record.UserTurns)
	req.Equal(testDelay+2*time.Minute, record.Duration)
	req.Equal("zh", record.Lang)
	req.Nil(record.Flags)

	// And the session is gone
	_, err = f.service.Session(session.ID)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	req.Empty(f.service.Running("1"))
	<-session.loop.Done()
	req.ErrorIs(session.Submit(ctx), errors.ErrLoopStopped)
}

func TestPracticeService_End_Cancels_Pending_Reply(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	timeline := sink.NewTimeline()
	session, err := f.service.Start(ctx, "1", timeline)
	req.NoError(err)

	req.NoError(session.Send(ctx, "你好"))
	req.Equal(1, f.clock.Pending())

	f.history.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	f.index.EXPECT().Index(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	record, err := session.End(ctx)
	req.NoError(err)

	req.Zero(f.clock.Pending())
	req.Equal(4, record.MessageCount)
	latest, ok := timeline.Latest()
	req.True(ok)
	req.True(latest.Ended)
}

func TestPracticeService_Failed_Archive_Keeps_Session(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	timeline := sink.NewTimeline()
	session, err := f.service.Start(ctx, "1", timeline)
	req.NoError(err)
	req.NoError(session.Send(ctx, "我最近睡不好"))
	// The reply fires and is queued on the loop ahead of End
	f.clock.Advance(time.Minute)

	// Given the archive refuses the first write
	f.history.EXPECT().Store(gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	// When the session is ended
	_, err = session.End(ctx)

	// Then the error is reported and nothing is lost
	req.ErrorContains(err, "disk full")
	found, err := f.service.Session(session.ID)
	req.NoError(err)
	req.Same(session, found)
	transcript, ok := session.Transcript()
	req.True(ok)
	req.Len(transcript, 5)
	state, err := session.State(ctx)
	req.NoError(err)
	req.True(state.Ended)
	req.Zero(f.clock.Pending())

	// When the archive is back and End is retried later
	f.clock.Advance(time.Minute)
	f.history.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(record domain.HistoryRecord, stored []domain.Message) error {
			req.Equal(transcript, stored)
			return nil
		}).
		Times(1)
	f.index.EXPECT().Index(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	record, err := session.End(ctx)

	// Then the record is the one of the original end
	req.NoError(err)
	req.Equal(5, record.MessageCount)
	req.Equal(time.Minute, record.Duration)
	_, err = f.service.Session(session.ID)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	// And a third End is refused
	_, err = session.End(ctx)
	req.ErrorIs(err, errors.ErrSessionEnded)
}

func TestPracticeService_Close_Stops_Supervisor(t *testing.T) {
	ctrl := gomock.NewController(t)
	supervisor := mocks.NewMockISupervisor(ctrl)
	service := NewPracticeService(slog.Default(), clock.NewFake(time.Now()), catalog.Default(),
		mocks.NewMockIHistoryRepository(ctrl), mocks.NewMockITranscriptIndex(ctrl), supervisor, Settings{})

	// Then the loops are cancelled before waiting for them
	gomock.InOrder(
		supervisor.EXPECT().Stop().Times(1),
		supervisor.EXPECT().Wait().Times(1),
	)

	service.Close()
}

func TestPracticeService_Deep_Practice_Uses_Script(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	timeline := sink.NewTimeline()
	session, err := f.service.Start(ctx, "2", timeline)
	req.NoError(err)

	req.NoError(session.Send(ctx, "能具体说说吗？"))
	waitForMessages(t, timeline, 4)
	f.clock.Advance(testDelay)
	state := waitForMessages(t, timeline, 5)

	// The opening already holds two counterpart turns
	req.Equal(catalog.DeepScript[2], state.Messages[4].Content)
}

func TestPracticeService_Info_And_Keyboard(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	session, err := f.service.Start(ctx, "1")
	req.NoError(err)

	req.NoError(session.OpenInfo(ctx))
	req.NoError(session.ReportKeyboardVisibility(ctx, true))
	state, err := session.State(ctx)
	req.NoError(err)
	req.True(state.InfoVisible)
	req.True(state.KeyboardVisible)

	req.NoError(session.CloseInfo(ctx))
	req.NoError(session.UpdateInput(ctx, "   "))
	req.NoError(session.Submit(ctx))
	state, err = session.State(ctx)
	req.NoError(err)
	req.False(state.InfoVisible)
	req.Len(state.Messages, 3)

	found, err := f.service.Session(session.ID)
	req.NoError(err)
	req.Same(session, found)
}

func TestPracticeService_SeedHistory_Only_When_Empty(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// Given an empty archive
	f.history.EXPECT().Count().Return(0, nil)
	f.history.EXPECT().Store(gomock.Any(), nil).Return(nil).Times(3)
	f.index.EXPECT().Index(gomock.Any(), gomock.Any(), nil).Return(nil).Times(3)
	req.NoError(f.service.SeedHistory(ctx))

	// Given an archive already filled
	f.history.EXPECT().Count().Return(3, nil)
	req.NoError(f.service.SeedHistory(ctx))
}

func TestPracticeService_History_And_Search_Delegate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New()
	records := []domain.HistoryRecord{{ID: id, Title: "Session"}}
	hits := []domain.SearchHit{{RecordID: id, Title: "Session", Score: 1}}

	f.history.EXPECT().List(20).Return(records, nil)
	f.history.EXPECT().Transcript(id).Return(nil, errors.ErrRecordNotFound)
	f.index.EXPECT().Search(gomock.Any(), "sleep", 5).Return(hits, nil)

	got, err := f.service.History(20)
	req.NoError(err)
	req.Equal(records, got)

	_, err = f.service.Transcript(id)
	req.ErrorIs(err, errors.ErrRecordNotFound)

	found, err := f.service.Search(ctx, "sleep", 5)
	req.NoError(err)
	req.Equal(hits, found)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)
	at := time.Now()
	req.Empty(detectLanguage(nil))
	req.Equal("zh", detectLanguage([]domain.Message{
		domain.NewMessage(domain.SenderCounterpart, "我最近感觉自己快被工作压得喘不过气来了，我真的不知道该怎么办了。", at),
	}))
}

func TestPracticeService_Archive_Flags_Risk_Terms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	session, err := f.service.Start(ctx, "1")
	req.NoError(err)

	// Given the conversation mentions a risk term
	req.NoError(session.Send(ctx, "她说有时候真的不想活了，我该怎么回应？"))

	// When the session is archived
	f.history.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	f.index.EXPECT().Index(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	record, err := session.End(ctx)

	// Then the record carries the flag for review
	req.NoError(err)
	req.Equal([]string{"不想活"}, record.Flags)
}
