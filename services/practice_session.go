package services

import (
	"context"
	"fmt"
	"log/slog"
	"practice-lab/domain"
	"practice-lab/errors"
	"practice-lab/runtime"
	"practice-lab/runtime/workers"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PracticeSession is the thread-safe handle of a running session.
// Every call is executed on the session loop.
type PracticeSession struct {
	ID        uuid.UUID
	Card      domain.PracticeCard
	StartedAt time.Time

	loop       *workers.SessionLoop
	controller *runtime.Controller
	cancel     func()
	service    *PracticeService
	log        *slog.Logger

	endMu      sync.Mutex
	ended      bool
	archived   bool
	endedAt    time.Time
	transcript []domain.Message
}

func (p *PracticeSession) Info() domain.SessionInfo {
	return p.controller.Info()
}

func (p *PracticeSession) UpdateInput(ctx context.Context, text string) error {
	return p.loop.Do(ctx, func() error { return p.controller.UpdateInput(text) })
}

func (p *PracticeSession) Submit(ctx context.Context) error {
	return p.loop.Do(ctx, p.controller.Submit)
}

// Send types text and submits it in a single step.
func (p *PracticeSession) Send(ctx context.Context, text string) error {
	return p.loop.Do(ctx, func() error {
		if err := p.controller.UpdateInput(text); err != nil {
			return err
		}
		return p.controller.Submit()
	})
}

func (p *PracticeSession) OpenInfo(ctx context.Context) error {
	return p.loop.Do(ctx, p.controller.OpenInfo)
}

func (p *PracticeSession) CloseInfo(ctx context.Context) error {
	return p.loop.Do(ctx, p.controller.CloseInfo)
}

func (p *PracticeSession) ReportKeyboardVisibility(ctx context.Context, visible bool) error {
	return p.loop.Do(ctx, func() error { return p.controller.ReportKeyboardVisibility(visible) })
}

func (p *PracticeSession) State(ctx context.Context) (domain.SessionState, error) {
	var state domain.SessionState
	err := p.loop.Do(ctx, func() error {
		state = p.controller.State()
		return nil
	})
	return state, err
}

// End closes the session, archives the conversation and stops the loop.
// If archiving fails the session stays registered and its loop keeps
// running: State and Transcript still answer, and End may be called again
// to retry the archive.
func (p *PracticeSession) End(ctx context.Context) (domain.HistoryRecord, error) {
	p.endMu.Lock()
	defer p.endMu.Unlock()

	if p.archived {
		return domain.HistoryRecord{}, fmt.Errorf("%w: %s already archived", errors.ErrSessionEnded, p.ID)
	}
	if !p.ended {
		err := p.loop.Do(ctx, func() error {
			transcript, err := p.controller.End()
			if err != nil {
				return err
			}
			p.transcript = transcript
			p.endedAt = p.service.clock.Now()
			return nil
		})
		if err != nil {
			return domain.HistoryRecord{}, err
		}
		p.ended = true
	}

	record, err := p.service.archive(ctx, p)
	if err != nil {
		p.log.Error("Practice could not be archived, transcript kept", "error", err)
		return domain.HistoryRecord{}, err
	}
	p.archived = true
	p.cancel()
	return record, nil
}

// Transcript returns the final log once End has closed the session,
// whether or not it has been archived yet.
func (p *PracticeSession) Transcript() ([]domain.Message, bool) {
	p.endMu.Lock()
	defer p.endMu.Unlock()
	if !p.ended {
		return nil, false
	}
	return slices.Clone(p.transcript), true
}
