package domain

import "time"

// PlaybackState models the lifetime of the single looping audio resource.
type PlaybackState string

const (
	PlaybackStateUninitialized PlaybackState = "uninitialized"
	PlaybackStatePrepared      PlaybackState = "prepared"
	PlaybackStatePlaying       PlaybackState = "playing"
	PlaybackStatePaused        PlaybackState = "paused"
	PlaybackStateReleased      PlaybackState = "released"
)

// LoopMode describes how the ambient track repeats.
type LoopMode int

const (
	LoopModeNone  LoopMode = iota
	LoopModeTrack          // repeat the single track forever
)

// String returns the wire name of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopModeTrack:
		return "single-track-repeat-forever"
	default:
		return "none"
	}
}

// SessionPhase models the monitoring session lifecycle.
type SessionPhase string

const (
	SessionPhaseIdle    SessionPhase = "idle"
	SessionPhaseActive  SessionPhase = "active"
	SessionPhaseStopped SessionPhase = "stopped"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonIdle            SessionStateReason = "session_idle"
	SessionReasonStarted         SessionStateReason = "session_started"
	SessionReasonStopped         SessionStateReason = "session_stopped"
	SessionReasonClosed          SessionStateReason = "session_closed"
	SessionReasonPlaybackStarted SessionStateReason = "playback_started"
	SessionReasonPlaybackStopped SessionStateReason = "playback_stopped"
	SessionReasonStartFailed     SessionStateReason = "start_failed"
	SessionReasonTick            SessionStateReason = "tick"
)

// ErrorCode identifies non-fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup         ErrorCode = "startup"
	ErrorCodeAudioAllocation ErrorCode = "audio_allocation"
	ErrorCodeAudioStop       ErrorCode = "audio_stop"
	ErrorCodeAudioRelease    ErrorCode = "audio_release"
)

// AssetRef points at the ambient loop asset.
type AssetRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PlaybackStatus is a consistent snapshot of the playback controller.
type PlaybackStatus struct {
	State      PlaybackState `json:"state"`
	Playing    bool          `json:"playing"`
	Generation uint64        `json:"generation"`
	Asset      string        `json:"asset,omitempty"`
	// Position is play time since the last rewind, not wrapped to the track length.
	Position   time.Duration `json:"position"`
}

// SessionStatus summarizes the monitoring session for the view layer.
type SessionStatus struct {
	ID        string        `json:"id,omitempty"`
	Phase     SessionPhase  `json:"phase"`
	Playing   bool          `json:"playing"`
	StartedAt time.Time     `json:"startedAt,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Asset     string        `json:"asset,omitempty"`
}
