package sink

import (
	"log/slog"
	"practice-lab/domain"
)

// LogSink traces session snapshots at debug level.
// The logger is expected to carry the session attributes.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) OnStateChange(state domain.SessionState) {
	l.log.Debug("Session state changed",
		"messages", len(state.Messages),
		"phase", state.Phase.String(),
		"info_visible", state.InfoVisible,
		"keyboard_visible", state.KeyboardVisible,
		"ended", state.Ended,
	)
}
