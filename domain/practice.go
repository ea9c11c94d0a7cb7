package domain

import (
	"time"

	"github.com/google/uuid"
)

type PracticeType string

const (
	PracticeFast PracticeType = "fast"
	PracticeDeep PracticeType = "deep"
)

func (t PracticeType) Label() string {
	if t == PracticeDeep {
		return "深度思考版"
	}
	return "极速版"
}

// PracticeCard is one entry of the practice center list.
type PracticeCard struct {
	ID          string
	Title       string
	Description string
	Type        PracticeType
}

// HistoryRecord summarises an archived practice session.
type HistoryRecord struct {
	ID           uuid.UUID
	PracticeID   string
	Title        string
	StartedAt    time.Time
	Duration     time.Duration
	MessageCount int
	UserTurns    int
	Score        *int // nil until the session has been evaluated
	Lang         string
	Flags        []string // sensitive terms spotted in the transcript
}

func (h HistoryRecord) Minutes() int {
	return int(h.Duration.Round(time.Minute) / time.Minute)
}

type SearchHit struct {
	RecordID uuid.UUID
	Title    string
	Score    float64
}
