package services

import (
	"practice-lab/domain"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
)

// detectLanguage returns the ISO 639-1 code of the conversation,
// or an empty string when there is nothing to detect.
func detectLanguage(transcript []domain.Message) string {
	text := strings.Join(lo.Map(transcript, func(m domain.Message, _ int) string { return m.Content }), "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return whatlanggo.Detect(text).Lang.Iso6391()
}
