package domain

import (
	"slices"
	"time"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingReply
)

func (p Phase) String() string {
	if p == PhaseAwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// SessionInfo is the static briefing shown in the info drawer.
// It never changes during a session.
type SessionInfo struct {
	Title       string `validate:"required"`
	Description string
	Background  string // who the counterpart is
	Context     string // background material
	Goals       string // what the practice should achieve
}

// PendingReply describes the counterpart reply currently scheduled.
type PendingReply struct {
	DueAt time.Time
}

// SessionState is a snapshot published to observers after each change.
// Messages is a private copy, so holders may keep it around.
type SessionState struct {
	Messages         []Message
	PendingInput     string
	InfoVisible      bool
	KeyboardVisible  bool
	OutstandingReply *PendingReply
	Phase            Phase
	Ended            bool
}

func (s SessionState) Clone() SessionState {
	clone := s
	clone.Messages = slices.Clone(s.Messages)
	if s.OutstandingReply != nil {
		reply := *s.OutstandingReply
		clone.OutstandingReply = &reply
	}
	return clone
}
