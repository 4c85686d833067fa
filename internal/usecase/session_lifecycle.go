package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"calmspace/internal/domain"
	"calmspace/internal/ports"
)

var ErrInvalidTransition = errors.New("invalid session transition")

// SessionLifecycle binds the monitoring session phase to playback.
type SessionLifecycle struct {
	playback *PlaybackController
	events   ports.EventSink
	clock    clockwork.Clock
	newID    func() string

	opMu   sync.Mutex
	state  *sessionState
	closed bool
}

func NewSessionLifecycle(playback *PlaybackController, events ports.EventSink, clock clockwork.Clock) *SessionLifecycle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if events == nil {
		events = ports.NoopEventSink{}
	}
	return &SessionLifecycle{
		playback: playback,
		events:   events,
		clock:    clock,
		newID:    uuid.NewString,
		state:    newSessionState(),
	}
}

// StartSession starts looping playback and marks the session active.
// On failure the phase is left unchanged.
func (l *SessionLifecycle) StartSession(ctx context.Context) (domain.SessionStatus, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.closed {
		return l.Status(), fmt.Errorf("start session: %w: lifecycle is closed", ErrInvalidTransition)
	}
	if l.state.getPhase() == domain.SessionPhaseActive {
		return l.Status(), nil
	}

	if err := l.playback.Start(ctx); err != nil {
		l.events.SessionError(domain.ErrorCodeAudioAllocation, err.Error())
		status := l.Status()
		l.events.SessionStateChanged(status, domain.SessionReasonStartFailed)
		return status, err
	}

	l.state.activate(l.newID(), l.clock.Now())
	status := l.Status()
	l.events.SessionStateChanged(status, domain.SessionReasonStarted)
	return status, nil
}

// StopSession ends an active session and releases its audio resource eagerly.
func (l *SessionLifecycle) StopSession() domain.SessionStatus {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.state.getPhase() != domain.SessionPhaseActive {
		return l.Status()
	}

	l.teardown()
	l.state.stop(l.clock.Now())
	status := l.Status()
	l.events.SessionStateChanged(status, domain.SessionReasonStopped)
	return status
}

// ToggleActive plays or pauses the loop inside an active session.
// The session phase is never changed.
func (l *SessionLifecycle) ToggleActive(ctx context.Context) (domain.SessionStatus, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.state.getPhase() != domain.SessionPhaseActive {
		return l.Status(), nil
	}

	if err := l.playback.Toggle(ctx); err != nil {
		code := domain.ErrorCodeAudioStop
		if errors.Is(err, ErrResourceAllocation) {
			code = domain.ErrorCodeAudioAllocation
		}
		l.events.SessionError(code, err.Error())
		return l.Status(), err
	}

	status := l.Status()
	reason := domain.SessionReasonPlaybackStopped
	if status.Playing {
		reason = domain.SessionReasonPlaybackStarted
	}
	l.events.SessionStateChanged(status, reason)
	return status, nil
}

// Close releases the resource from any phase and resets to idle.
// It is safe to call more than once.
func (l *SessionLifecycle) Close() error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.playback.Release()
	l.state.reset()
	l.events.SessionStateChanged(l.Status(), domain.SessionReasonClosed)
	return err
}

// publishTick emits the live status as a tick while the session is active.
// It holds the operation lock so a tick is never delivered after the
// transition that ended the session.
func (l *SessionLifecycle) publishTick() {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	status := l.Status()
	if status.Phase != domain.SessionPhaseActive {
		return
	}
	l.events.SessionStateChanged(status, domain.SessionReasonTick)
}

// Status returns the session snapshot with live elapsed time.
func (l *SessionLifecycle) Status() domain.SessionStatus {
	status := l.state.snapshot(l.clock.Now())
	playback := l.playback.Status()
	status.Playing = playback.Playing
	status.Asset = playback.Asset
	return status
}

// IsPlaying exposes the playback signal the monitor view renders.
func (l *SessionLifecycle) IsPlaying() bool {
	return l.playback.IsPlaying()
}

func (l *SessionLifecycle) teardown() {
	if err := l.playback.Stop(); err != nil {
		l.events.SessionError(domain.ErrorCodeAudioStop, fmt.Sprintf("failed to stop playback cleanly: %v", err))
	}
	if err := l.playback.Release(); err != nil {
		l.events.SessionError(domain.ErrorCodeAudioRelease, err.Error())
	}
}

// WithSession runs fn inside a started session and always closes the
// lifecycle afterwards, including when fn fails or panics.
func WithSession(ctx context.Context, l *SessionLifecycle, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if closeErr := l.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := l.StartSession(ctx); err != nil {
		return err
	}
	defer l.StopSession()

	return fn(ctx)
}
