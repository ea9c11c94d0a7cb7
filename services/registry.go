package services

import (
	"sync"

	"github.com/google/uuid"
)

type Set map[uuid.UUID]struct{}

// Registry tracks the running sessions and which practice each one belongs to.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*PracticeSession
	byPractice map[string]Set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[uuid.UUID]*PracticeSession),
		byPractice: make(map[string]Set),
	}
}

func (r *Registry) Add(session *PracticeSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session

	if _, ok := r.byPractice[session.Card.ID]; !ok {
		r.byPractice[session.Card.ID] = make(Set)
	}
	r.byPractice[session.Card.ID][session.ID] = struct{}{}
}

func (r *Registry) Get(id uuid.UUID) (*PracticeSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// ForPractice returns the running sessions of a practice, nil when there are none.
func (r *Registry) ForPractice(practiceID string) []*PracticeSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.byPractice[practiceID]
	if !ok {
		return nil
	}
	var active []*PracticeSession
	for id := range members {
		if session, exists := r.sessions[id]; exists {
			active = append(active, session)
		}
	}
	return active
}

// Remove forgets a session. Empty practice sets are dropped so the map
// does not grow with every practice ever started.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)

	if members, ok := r.byPractice[session.Card.ID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.byPractice, session.Card.ID)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
