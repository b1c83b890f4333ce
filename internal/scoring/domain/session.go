// Package domain defines the entities owned by the scoring engine.
package domain

import (
	"time"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
)

// Mode identifies the difficulty mode a session is played in.
type Mode string

const (
	// ModePemula is the beginner mode; advanced features are forbidden.
	ModePemula Mode = "PEMULA"
	// ModeMahir is the advanced mode with loans, insurance and saving goals.
	ModeMahir Mode = "MAHIR"
)

// IsValid reports whether the mode is a known value.
func (m Mode) IsValid() bool {
	return m == ModePemula || m == ModeMahir
}

// SessionStatus identifies the lifecycle state of a session.
type SessionStatus string

const (
	SessionCreated SessionStatus = "CREATED"
	SessionStarted SessionStatus = "STARTED"
	SessionEnded   SessionStatus = "ENDED"
)

// IsValid reports whether the status is a known value.
func (s SessionStatus) IsValid() bool {
	return s == SessionCreated || s == SessionStarted || s == SessionEnded
}

// CanTransitionTo reports whether the lifecycle transition is allowed.
// Transitions are monotonic: CREATED -> STARTED -> ENDED, no reversals.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionCreated:
		return next == SessionStarted
	case SessionStarted:
		return next == SessionEnded
	default:
		return false
	}
}

// Session represents one play-through instance of the game.
type Session struct {
	ID        string
	Mode      Mode
	Status    SessionStatus
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
}

// Transition validates and applies a lifecycle transition at the given time.
func (s *Session) Transition(next SessionStatus, now time.Time) error {
	if !next.IsValid() {
		return apperrors.NewRule(apperrors.CodeValidation, "SESSION_INVALID_STATUS", "unknown session status")
	}
	if !s.Status.CanTransitionTo(next) {
		return apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_INVALID_TRANSITION",
			"session status transition is not allowed")
	}
	s.Status = next
	switch next {
	case SessionStarted:
		s.StartedAt = now
	case SessionEnded:
		s.EndedAt = now
	}
	return nil
}

// Player represents a participant of a session.
type Player struct {
	ID          string
	SessionID   string
	DisplayName string
	JoinedAt    time.Time
}
