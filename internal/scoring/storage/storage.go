// Package storage defines the persistence interfaces for the scoring
// engine. Implementations live in the memory and sqlite subpackages.
package storage

import (
	"context"
	"time"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/metrics"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrDuplicate indicates an insert collided with an existing record.
// Unique-constraint violations on concurrent duplicate appends surface as
// this error rather than as raw driver failures.
var ErrDuplicate = apperrors.New(apperrors.CodeDuplicate, "record already exists")

// Validation log outcomes.
const (
	OutcomeAccepted = "ACCEPTED"
	OutcomeRejected = "REJECTED"
)

// ValidationLogEntry is one audit record per ingestion attempt, accepted
// or rejected, keyed by (session id, event id). Inserts are idempotent.
type ValidationLogEntry struct {
	SessionID  string
	EventID    string
	ActionType string
	Outcome    string
	ErrorCode  string
	RuleCode   string
	Message    string
	RecordedAt time.Time
}

// EventStore owns the append-only event journal. Events are never updated
// or deleted after acceptance.
type EventStore interface {
	AppendEvent(ctx context.Context, evt event.Event) error
	// ListEvents returns a session's full history ordered by sequence.
	ListEvents(ctx context.Context, sessionID string) ([]event.Event, error)
	// ListEventsPage returns events with sequence >= fromSeq ordered by
	// sequence, at most limit rows.
	ListEventsPage(ctx context.Context, sessionID string, fromSeq uint64, limit int) ([]event.Event, error)
	// CountEvents returns the number of stored events for a session.
	CountEvents(ctx context.Context, sessionID string) (int, error)
}

// ProjectionStore owns the derived cashflow ledger.
type ProjectionStore interface {
	AppendProjection(ctx context.Context, entry projection.Entry) error
	// ListProjections returns a session's ledger in append order.
	ListProjections(ctx context.Context, sessionID string) ([]projection.Entry, error)
}

// MetricStore owns append-only metric snapshots.
type MetricStore interface {
	AppendSnapshots(ctx context.Context, snapshots []metrics.Snapshot) error
	// ListSnapshots returns all snapshots for a session in append order.
	ListSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error)
	// LatestSnapshots returns the most recent snapshot per (player id,
	// metric name) pair for a session.
	LatestSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error)
}

// ValidationLogStore owns the ingestion audit trail.
type ValidationLogStore interface {
	// RecordValidation inserts an audit entry. A replayed (session id,
	// event id, outcome) is a no-op, not an error.
	RecordValidation(ctx context.Context, entry ValidationLogEntry) error
	ListValidationLog(ctx context.Context, sessionID string, limit int) ([]ValidationLogEntry, error)
	// CountRejections returns the number of rejected attempts for a session.
	CountRejections(ctx context.Context, sessionID string) (int, error)
}

// SessionStore owns session lifecycle records.
type SessionStore interface {
	PutSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
}

// PlayerStore owns session membership records.
type PlayerStore interface {
	PutPlayer(ctx context.Context, p domain.Player) error
	GetPlayer(ctx context.Context, sessionID, playerID string) (domain.Player, error)
	ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error)
}

// RulesetStore owns rulesets, their immutable versions, and the
// append-only activation log binding sessions to versions.
type RulesetStore interface {
	PutRuleset(ctx context.Context, r domain.Ruleset) error
	GetRuleset(ctx context.Context, id string) (domain.Ruleset, error)
	PutRulesetVersion(ctx context.Context, v domain.RulesetVersion) error
	GetRulesetVersion(ctx context.Context, id string) (domain.RulesetVersion, error)
	ListRulesetVersions(ctx context.Context, rulesetID string) ([]domain.RulesetVersion, error)
	// AppendActivation records a session/version binding. Old records are
	// never mutated; the latest record is the current binding.
	AppendActivation(ctx context.Context, rec domain.ActivationRecord) error
	// CurrentActivation returns the latest activation record for a session.
	CurrentActivation(ctx context.Context, sessionID string) (domain.ActivationRecord, error)
}

// Store aggregates every persistence interface the scoring service needs.
type Store interface {
	EventStore
	ProjectionStore
	MetricStore
	ValidationLogStore
	SessionStore
	PlayerStore
	RulesetStore
}
