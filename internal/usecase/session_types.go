package usecase

import (
	"sync"
	"time"

	"calmspace/internal/domain"
	"calmspace/internal/ports"
)

type audioResource struct {
	handle     ports.AudioHandle
	asset      domain.AssetRef
	generation uint64
	state      domain.PlaybackState
}

type sessionState struct {
	mu        sync.Mutex
	id        string
	phase     domain.SessionPhase
	startedAt time.Time
	stoppedAt time.Time
}

func newSessionState() *sessionState {
	return &sessionState{phase: domain.SessionPhaseIdle}
}

func (s *sessionState) activate(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.phase = domain.SessionPhaseActive
	s.startedAt = now
	s.stoppedAt = time.Time{}
}

func (s *sessionState) stop(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.SessionPhaseStopped
	s.stoppedAt = now
}

func (s *sessionState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.phase = domain.SessionPhaseIdle
	s.startedAt = time.Time{}
	s.stoppedAt = time.Time{}
}

func (s *sessionState) getPhase() domain.SessionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *sessionState) snapshot(now time.Time) domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.SessionStatus{
		ID:        s.id,
		Phase:     s.phase,
		StartedAt: s.startedAt,
	}
	switch s.phase {
	case domain.SessionPhaseActive:
		status.Elapsed = now.Sub(s.startedAt)
	case domain.SessionPhaseStopped:
		status.Elapsed = s.stoppedAt.Sub(s.startedAt)
	}
	if status.Elapsed < 0 {
		status.Elapsed = 0
	}
	return status
}
