// Package memory provides an in-memory implementation of the scoring
// storage interfaces, primarily for tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/metrics"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

var errSessionIDRequired = errors.New("session id is required")

// Store keeps all scoring records in process memory behind one mutex.
type Store struct {
	mu          sync.Mutex
	events      map[string][]event.Event
	eventIDs    map[string]map[string]struct{}
	sequences   map[string]map[uint64]struct{}
	projections map[string][]projection.Entry
	snapshots   map[string][]metrics.Snapshot
	audit       map[string][]storage.ValidationLogEntry
	auditKeys   map[string]map[string]struct{}
	sessions    map[string]domain.Session
	players     map[string]map[string]domain.Player
	rulesets    map[string]domain.Ruleset
	versions    map[string]domain.RulesetVersion
	activations map[string][]domain.ActivationRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		events:      make(map[string][]event.Event),
		eventIDs:    make(map[string]map[string]struct{}),
		sequences:   make(map[string]map[uint64]struct{}),
		projections: make(map[string][]projection.Entry),
		snapshots:   make(map[string][]metrics.Snapshot),
		audit:       make(map[string][]storage.ValidationLogEntry),
		auditKeys:   make(map[string]map[string]struct{}),
		sessions:    make(map[string]domain.Session),
		players:     make(map[string]map[string]domain.Player),
		rulesets:    make(map[string]domain.Ruleset),
		versions:    make(map[string]domain.RulesetVersion),
		activations: make(map[string][]domain.ActivationRecord),
	}
}

// AppendEvent appends an event, enforcing event-id and sequence uniqueness
// per session.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(evt.SessionID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.eventIDs[evt.SessionID]
	if !ok {
		ids = make(map[string]struct{})
		s.eventIDs[evt.SessionID] = ids
	}
	seqs, ok := s.sequences[evt.SessionID]
	if !ok {
		seqs = make(map[uint64]struct{})
		s.sequences[evt.SessionID] = seqs
	}
	if _, exists := ids[evt.EventID]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := seqs[evt.Sequence]; exists {
		return storage.ErrDuplicate
	}

	ids[evt.EventID] = struct{}{}
	seqs[evt.Sequence] = struct{}{}
	s.events[evt.SessionID] = append(s.events[evt.SessionID], evt)
	return nil
}

// ListEvents returns a session's history ordered by sequence.
func (s *Store) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]event.Event, len(s.events[sessionID]))
	copy(history, s.events[sessionID])
	sort.Slice(history, func(i, j int) bool {
		return history[i].Sequence < history[j].Sequence
	})
	return history, nil
}

// ListEventsPage returns events with sequence >= fromSeq, at most limit rows.
func (s *Store) ListEventsPage(ctx context.Context, sessionID string, fromSeq uint64, limit int) ([]event.Event, error) {
	history, err := s.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	page := make([]event.Event, 0, limit)
	for _, evt := range history {
		if evt.Sequence < fromSeq {
			continue
		}
		page = append(page, evt)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// CountEvents returns the number of stored events for a session.
func (s *Store) CountEvents(ctx context.Context, sessionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[sessionID]), nil
}

// AppendProjection appends a derived ledger entry.
func (s *Store) AppendProjection(ctx context.Context, entry projection.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projections[entry.SessionID] = append(s.projections[entry.SessionID], entry)
	return nil
}

// ListProjections returns a session's ledger in append order.
func (s *Store) ListProjections(ctx context.Context, sessionID string) ([]projection.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]projection.Entry, len(s.projections[sessionID]))
	copy(entries, s.projections[sessionID])
	return entries, nil
}

// AppendSnapshots appends metric snapshots, never overwriting prior ones.
func (s *Store) AppendSnapshots(ctx context.Context, snapshots []metrics.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		s.snapshots[snap.SessionID] = append(s.snapshots[snap.SessionID], snap)
	}
	return nil
}

// ListSnapshots returns all snapshots for a session in append order.
func (s *Store) ListSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := make([]metrics.Snapshot, len(s.snapshots[sessionID]))
	copy(snaps, s.snapshots[sessionID])
	return snaps, nil
}

// LatestSnapshots returns the latest snapshot per (player id, metric name).
func (s *Store) LatestSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]metrics.Snapshot)
	keys := make([]string, 0)
	for _, snap := range snaps {
		key := snap.PlayerID + "\x00" + snap.Name
		current, seen := latest[key]
		if !seen {
			keys = append(keys, key)
		}
		if !seen || !snap.ComputedAt.Before(current.ComputedAt) {
			latest[key] = snap
		}
	}

	sort.Strings(keys)
	result := make([]metrics.Snapshot, 0, len(keys))
	for _, key := range keys {
		result = append(result, latest[key])
	}
	return result, nil
}

// RecordValidation inserts an audit entry; a replayed (session id, event id)
// key is a no-op.
func (s *Store) RecordValidation(ctx context.Context, entry storage.ValidationLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.auditKeys[entry.SessionID]
	if !ok {
		keys = make(map[string]struct{})
		s.auditKeys[entry.SessionID] = keys
	}
	if _, exists := keys[entry.EventID]; exists {
		return nil
	}
	keys[entry.EventID] = struct{}{}
	s.audit[entry.SessionID] = append(s.audit[entry.SessionID], entry)
	return nil
}

// ListValidationLog returns the most recent audit entries, newest first.
func (s *Store) ListValidationLog(ctx context.Context, sessionID string, limit int) ([]storage.ValidationLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.audit[sessionID]
	entries := make([]storage.ValidationLogEntry, 0, limit)
	for i := len(log) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, log[i])
	}
	return entries, nil
}

// CountRejections returns the number of rejected attempts for a session.
func (s *Store) CountRejections(ctx context.Context, sessionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.audit[sessionID] {
		if entry.Outcome == storage.OutcomeRejected {
			count++
		}
	}
	return count, nil
}

// PutSession persists a session record.
func (s *Store) PutSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	return session, nil
}

// PutPlayer persists a player record.
func (s *Store) PutPlayer(ctx context.Context, p domain.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.SessionID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.players[p.SessionID]
	if !ok {
		members = make(map[string]domain.Player)
		s.players[p.SessionID] = members
	}
	members[p.ID] = p
	return nil
}

// GetPlayer retrieves a player by session and player id.
func (s *Store) GetPlayer(ctx context.Context, sessionID, playerID string) (domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return domain.Player{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[sessionID][playerID]
	if !ok {
		return domain.Player{}, storage.ErrNotFound
	}
	return p, nil
}

// ListPlayers returns a session's players sorted by id.
func (s *Store) ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]domain.Player, 0, len(s.players[sessionID]))
	for _, p := range s.players[sessionID] {
		members = append(members, p)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// PutRuleset persists a ruleset record.
func (s *Store) PutRuleset(ctx context.Context, r domain.Ruleset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulesets[r.ID] = r
	return nil
}

// GetRuleset retrieves a ruleset by id.
func (s *Store) GetRuleset(ctx context.Context, id string) (domain.Ruleset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ruleset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rulesets[id]
	if !ok {
		return domain.Ruleset{}, storage.ErrNotFound
	}
	return r, nil
}

// PutRulesetVersion persists a ruleset version record.
func (s *Store) PutRulesetVersion(ctx context.Context, v domain.RulesetVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[v.ID] = v
	return nil
}

// GetRulesetVersion retrieves a ruleset version by id.
func (s *Store) GetRulesetVersion(ctx context.Context, id string) (domain.RulesetVersion, error) {
	if err := ctx.Err(); err != nil {
		return domain.RulesetVersion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[id]
	if !ok {
		return domain.RulesetVersion{}, storage.ErrNotFound
	}
	return v, nil
}

// ListRulesetVersions returns a ruleset's versions sorted by number.
func (s *Store) ListRulesetVersions(ctx context.Context, rulesetID string) ([]domain.RulesetVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions := make([]domain.RulesetVersion, 0)
	for _, v := range s.versions {
		if v.RulesetID == rulesetID {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Number < versions[j].Number })
	return versions, nil
}

// AppendActivation records a session/version binding.
func (s *Store) AppendActivation(ctx context.Context, rec domain.ActivationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return errSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activations[rec.SessionID] = append(s.activations[rec.SessionID], rec)
	return nil
}

// CurrentActivation returns the latest activation record for a session.
func (s *Store) CurrentActivation(ctx context.Context, sessionID string) (domain.ActivationRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivationRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.activations[sessionID]
	if len(log) == 0 {
		return domain.ActivationRecord{}, storage.ErrNotFound
	}
	return log[len(log)-1], nil
}
