package ports

import (
	"context"
	"time"

	"calmspace/internal/domain"
)

// AssetProvider supplies the fixed ambient loop asset.
type AssetProvider interface {
	Resolve(ctx context.Context) (domain.AssetRef, error)
}

// AudioHandle is one exclusively owned, prepared audio output resource.
type AudioHandle interface {
	// Play begins or resumes output. It returns once output is audible.
	Play(ctx context.Context) error
	Pause() error
	SeekToStart() error
	// Position is accumulated play time since the last rewind.
	Position() time.Duration
	Close() error
}

// AudioOutput allocates audio output resources.
type AudioOutput interface {
	Open(ctx context.Context, asset domain.AssetRef, loop domain.LoopMode) (AudioHandle, error)
}

// EventSink emits backend state/events to the view layer.
type EventSink interface {
	PlaybackChanged(status domain.PlaybackStatus)
	SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason)
	SessionError(code domain.ErrorCode, detail string)
}

// ResourceObserver is notified about audio resource lifetime.
type ResourceObserver interface {
	ResourceAllocated()
	ResourceReleased()
	AllocationFailed()
}

// NoopResourceObserver discards all notifications.
type NoopResourceObserver struct{}

func (NoopResourceObserver) ResourceAllocated() {}
func (NoopResourceObserver) ResourceReleased()  {}
func (NoopResourceObserver) AllocationFailed()  {}

// NoopEventSink discards all events.
type NoopEventSink struct{}

func (NoopEventSink) PlaybackChanged(domain.PlaybackStatus)                               {}
func (NoopEventSink) SessionStateChanged(domain.SessionStatus, domain.SessionStateReason) {}
func (NoopEventSink) SessionError(domain.ErrorCode, string)                               {}
