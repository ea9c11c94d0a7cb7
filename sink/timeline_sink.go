package sink

import (
	"practice-lab/domain"
	"slices"
	"sync"
)

// Timeline keeps every snapshot a session published.
// Safe for concurrent use: sessions publish from their loop goroutine
// while readers poll from elsewhere.
type Timeline struct {
	mu        sync.RWMutex
	snapshots []domain.SessionState
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) OnStateChange(state domain.SessionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots = append(t.snapshots, state)
}

func (t *Timeline) Snapshots() []domain.SessionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.snapshots)
}

// Latest returns the last snapshot, if any was published.
func (t *Timeline) Latest() (domain.SessionState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.snapshots) == 0 {
		return domain.SessionState{}, false
	}
	return t.snapshots[len(t.snapshots)-1], true
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshots)
}
