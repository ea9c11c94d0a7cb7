//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"practice-lab/domain"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Start(ctx context.Context, worker Worker)
	Stop()
	Wait()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type TimerID uint64

// Clock supplies time and one-shot delayed callbacks.
// Cancel on an unknown or already fired timer is a no-op.
type Clock interface {
	Now() time.Time
	ScheduleOnce(delay time.Duration, fn func()) TimerID
	Cancel(id TimerID)
}

// ReplyProducer generates the counterpart reply content.
// It receives the transcript as it stands when the reply fires.
type ReplyProducer interface {
	Produce(transcript []domain.Message) string
}

// StateSink receives every snapshot published by a session.
type StateSink interface {
	OnStateChange(state domain.SessionState)
}

type StateSinkFunc func(state domain.SessionState)

func (f StateSinkFunc) OnStateChange(state domain.SessionState) { f(state) }

type IHistoryRepository interface {
	Store(record domain.HistoryRecord, transcript []domain.Message) error
	List(limit int) ([]domain.HistoryRecord, error)
	Transcript(id uuid.UUID) ([]domain.Message, error)
	Count() (int, error)
}

type ITranscriptIndex interface {
	Index(ctx context.Context, record domain.HistoryRecord, transcript []domain.Message) error
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}
