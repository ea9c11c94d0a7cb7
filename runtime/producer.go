package runtime

import (
	"practice-lab/domain"

	"github.com/samber/lo"
)

// CannedReply always answers with the same text.
type CannedReply string

func (c CannedReply) Produce(_ []domain.Message) string {
	return string(c)
}

// ScriptedReplies walks through a fixed script, picking the line matching
// the number of counterpart turns already in the transcript.
// The script loops once exhausted.
type ScriptedReplies []string

func (s ScriptedReplies) Produce(transcript []domain.Message) string {
	if len(s) == 0 {
		return ""
	}
	turns := lo.CountBy(transcript, func(m domain.Message) bool {
		return m.Sender == domain.SenderCounterpart
	})
	return s[turns%len(s)]
}
