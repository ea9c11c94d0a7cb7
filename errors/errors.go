package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrInvalidMessage   = fmt.Errorf("invalid message")
	ErrAlreadyScheduled = fmt.Errorf("a reply is already scheduled")
	ErrReplyFailed      = fmt.Errorf("reply could not be produced")
	ErrSessionEnded     = fmt.Errorf("session has ended")
	ErrPracticeNotFound = fmt.Errorf("practice not found")
	ErrSessionNotFound  = fmt.Errorf("session not found")
	ErrRecordNotFound   = fmt.Errorf("history record not found")
	ErrLoopStopped      = fmt.Errorf("session loop stopped")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
	ErrMalformedRecord  = fmt.Errorf("malformed stored record")
)
