// Package domain contains core concepts of the practice center.
// This file defines Message events exchanged during a session.
// Messages are immutable once appended to a session log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sender int

const (
	SenderCounterpart Sender = iota
	SenderUser
)

func (s Sender) String() string {
	switch s {
	case SenderCounterpart:
		return "counterpart"
	case SenderUser:
		return "user"
	default:
		return "unknown"
	}
}

// Message represents an immutable chat event.
type Message struct {
	ID        uuid.UUID // unique identifier
	Sender    Sender
	Content   string
	CreatedAt time.Time
}

func NewMessage(sender Sender, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   content,
		CreatedAt: at,
	}
}

func (m Message) FromUser() bool {
	return m.Sender == SenderUser
}
