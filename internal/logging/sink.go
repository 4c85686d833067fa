package logging

import (
	"context"
	"log/slog"

	"calmspace/internal/domain"
)

// Sink logs playback and session transitions.
type Sink struct {
	logger *slog.Logger
}

func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) PlaybackChanged(status domain.PlaybackStatus) {
	s.logger.Info("playback changed",
		"state", status.State,
		"playing", status.Playing,
		"generation", status.Generation,
		"asset", status.Asset,
	)
}

func (s *Sink) SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason) {
	level := slog.LevelInfo
	if reason == domain.SessionReasonTick {
		level = slog.LevelDebug
	}
	s.logger.Log(context.Background(), level, "session state changed",
		"session", status.ID,
		"phase", status.Phase,
		"reason", reason,
		"playing", status.Playing,
		"elapsed", status.Elapsed.String(),
	)
}

func (s *Sink) SessionError(code domain.ErrorCode, detail string) {
	s.logger.Warn("session error", "code", code, "detail", detail)
}
