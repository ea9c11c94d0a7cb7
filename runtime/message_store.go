package runtime

import (
	"fmt"
	"practice-lab/domain"
	"practice-lab/errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoreHandle is the position of a message in the log.
type StoreHandle int

// MessageStore is the append-only log of a single session.
// It is owned by one Controller and is not safe for concurrent use.
type MessageStore struct {
	messages []domain.Message
	ids      map[uuid.UUID]struct{}
}

// NewMessageStore builds a log from the opening messages of a session.
// The opening messages go through the same checks as appended ones.
func NewMessageStore(initial []domain.Message) (*MessageStore, error) {
	s := &MessageStore{ids: make(map[uuid.UUID]struct{}, len(initial))}
	for _, m := range initial {
		if _, err := s.Append(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MessageStore) Append(m domain.Message) (StoreHandle, error) {
	if m.FromUser() && strings.TrimSpace(m.Content) == "" {
		return 0, fmt.Errorf("%w: empty user content", errors.ErrInvalidMessage)
	}
	if m.ID == uuid.Nil {
		return 0, fmt.Errorf("%w: missing id", errors.ErrInvalidMessage)
	}
	if _, exists := s.ids[m.ID]; exists {
		return 0, fmt.Errorf("%w: id %s already used", errors.ErrInvalidMessage, m.ID)
	}
	if last, ok := s.LastTimestamp(); ok && m.CreatedAt.Before(last) {
		return 0, fmt.Errorf("%w: timestamp %s precedes %s",
			errors.ErrInvalidMessage, m.CreatedAt.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
	}
	s.ids[m.ID] = struct{}{}
	s.messages = append(s.messages, m)
	return StoreHandle(len(s.messages) - 1), nil
}

// All returns a copy of the log in append order.
func (s *MessageStore) All() []domain.Message {
	return slices.Clone(s.messages)
}

func (s *MessageStore) LastTimestamp() (time.Time, bool) {
	if len(s.messages) == 0 {
		return time.Time{}, false
	}
	return s.messages[len(s.messages)-1].CreatedAt, true
}

func (s *MessageStore) Len() int {
	return len(s.messages)
}
