package sink

import (
	"practice-lab/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeline_OnStateChange(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	_, ok := timeline.Latest()
	req.False(ok)

	first := domain.SessionState{PendingInput: "你好"}
	second := domain.SessionState{
		Messages: []domain.Message{domain.NewMessage(domain.SenderUser, "你好", time.Now())},
		Phase:    domain.PhaseAwaitingReply,
	}
	timeline.OnStateChange(first)
	timeline.OnStateChange(second)

	req.Equal(2, timeline.Len())
	latest, ok := timeline.Latest()
	req.True(ok)
	req.Equal(domain.PhaseAwaitingReply, latest.Phase)
	req.Equal([]domain.SessionState{first, second}, timeline.Snapshots())
}
