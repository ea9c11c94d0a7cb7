package services

import (
	"context"
	"fmt"
	"log/slog"
	"practice-lab/catalog"
	"practice-lab/clock"
	"practice-lab/contract"
	"practice-lab/domain"
	"practice-lab/errors"
	"practice-lab/moderation"
	"practice-lab/runtime"
	"practice-lab/runtime/workers"
	"practice-lab/sink"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IPracticeService interface {
	Practices() []domain.PracticeCard
	Start(ctx context.Context, practiceID string, sinks ...contract.StateSink) (*PracticeSession, error)
	Session(id uuid.UUID) (*PracticeSession, error)
	Running(practiceID string) []*PracticeSession
	History(limit int) ([]domain.HistoryRecord, error)
	Transcript(id uuid.UUID) ([]domain.Message, error)
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
	SeedHistory(ctx context.Context) error
	Close()
}

type Settings struct {
	ReplyDelay     time.Duration
	CannedReply    string
	LoopBufferSize int
	// Detector flags sensitive terms in archived transcripts, nil disables it
	Detector *moderation.Detector
}

// PracticeService runs practice sessions and archives them once ended.
// Each session gets its own SessionLoop, started under the supervisor.
type PracticeService struct {
	log        *slog.Logger
	clock      contract.Clock
	catalog    *catalog.Catalog
	history    contract.IHistoryRepository
	index      contract.ITranscriptIndex
	supervisor contract.ISupervisor
	settings   Settings
	sessions   *Registry
}

func NewPracticeService(
	log *slog.Logger,
	clock contract.Clock,
	catalog *catalog.Catalog,
	history contract.IHistoryRepository,
	index contract.ITranscriptIndex,
	supervisor contract.ISupervisor,
	settings Settings,
) *PracticeService {
	return &PracticeService{
		log:        log,
		clock:      clock,
		catalog:    catalog,
		history:    history,
		index:      index,
		supervisor: supervisor,
		settings:   settings,
		sessions:   NewRegistry(),
	}
}

func (s *PracticeService) Practices() []domain.PracticeCard {
	return s.catalog.Cards()
}

// Start opens a session on the given practice. The sinks receive every
// snapshot of the session, on the session goroutine.
func (s *PracticeService) Start(_ context.Context, practiceID string, sinks ...contract.StateSink) (*PracticeSession, error) {
	practice, err := s.catalog.Find(practiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, practiceID)
	}

	id := uuid.New()
	log := s.log.With("session", id.String())
	loop := workers.NewSessionLoop(id.String(), s.settings.LoopBufferSize, log)
	startedAt := s.clock.Now()

	controller, err := runtime.NewController(runtime.ControllerConfig{
		Info:       practice.Info,
		Initial:    practice.Opening(startedAt),
		Clock:      clock.Serialize(s.clock, loop.Post),
		Producer:   s.producerFor(practice.Card.Type),
		ReplyDelay: s.settings.ReplyDelay,
	}, log)
	if err != nil {
		return nil, err
	}
	controller.Subscribe(sink.NewLogSink(log))
	for _, st := range sinks {
		controller.Subscribe(st)
	}

	// The loop outlives the request that started it; Close or End stops it.
	loopCtx, cancel := context.WithCancel(context.Background())
	session := &PracticeSession{
		ID:         id,
		Card:       practice.Card,
		StartedAt:  startedAt,
		loop:       loop,
		controller: controller,
		cancel:     cancel,
		service:    s,
		log:        log,
	}

	s.sessions.Add(session)

	s.supervisor.Start(loopCtx, loop)
	log.Info("Practice started", "practice", practice.Card.ID, "type", practice.Card.Type)
	return session, nil
}

// Running returns the sessions of a practice that have not ended yet.
func (s *PracticeService) Running(practiceID string) []*PracticeSession {
	return s.sessions.ForPractice(practiceID)
}

func (s *PracticeService) Session(id uuid.UUID) (*PracticeSession, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, id)
	}
	return session, nil
}

func (s *PracticeService) History(limit int) ([]domain.HistoryRecord, error) {
	return s.history.List(limit)
}

func (s *PracticeService) Transcript(id uuid.UUID) ([]domain.Message, error) {
	return s.history.Transcript(id)
}

func (s *PracticeService) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return s.index.Search(ctx, query, limit)
}

// SeedHistory stores the sample records when the archive is still empty.
func (s *PracticeService) SeedHistory(ctx context.Context) error {
	count, err := s.history.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, record := range catalog.SeedHistory() {
		if err := s.history.Store(record, nil); err != nil {
			return err
		}
		if err := s.index.Index(ctx, record, nil); err != nil {
			return err
		}
	}
	s.log.Info("History seeded", "records", len(catalog.SeedHistory()))
	return nil
}

// Close stops every running session loop without archiving them.
func (s *PracticeService) Close() {
	s.supervisor.Stop()
	s.supervisor.Wait()
}

func (s *PracticeService) producerFor(kind domain.PracticeType) contract.ReplyProducer {
	if kind == domain.PracticeDeep {
		return runtime.ScriptedReplies(catalog.DeepScript)
	}
	return runtime.CannedReply(s.settings.CannedReply)
}

// archive stores and indexes an ended session. The session leaves the
// registry only once both succeeded, so a failed archive can be retried.
func (s *PracticeService) archive(ctx context.Context, session *PracticeSession) (domain.HistoryRecord, error) {
	transcript := session.transcript
	record := domain.HistoryRecord{
		ID:           session.ID,
		PracticeID:   session.Card.ID,
		Title:        session.Card.Title,
		StartedAt:    session.StartedAt,
		Duration:     session.endedAt.Sub(session.StartedAt),
		MessageCount: len(transcript),
		UserTurns:    lo.CountBy(transcript, domain.Message.FromUser),
		Lang:         detectLanguage(transcript),
		Flags:        s.flag(transcript),
	}
	if err := s.history.Store(record, transcript); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("archiving session %s: %w", session.ID, err)
	}
	if err := s.index.Index(ctx, record, transcript); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("indexing session %s: %w", session.ID, err)
	}
	s.sessions.Remove(session.ID)
	session.log.Info("Practice archived",
		"messages", record.MessageCount,
		"duration", record.Duration.String(),
		"lang", record.Lang,
		"flags", len(record.Flags))
	return record, nil
}

func (s *PracticeService) flag(transcript []domain.Message) []string {
	if s.settings.Detector == nil {
		return nil
	}
	return s.settings.Detector.Detect(lo.Map(transcript, func(m domain.Message, _ int) string {
		return m.Content
	})...)
}
