package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

const eventColumns = "session_id, sequence, event_id, player_id, actor_type, timestamp, day_index, weekday, turn_number, action_type, ruleset_version_id, payload_json, received_at"

// AppendEvent appends an accepted event. Unique-constraint collisions on
// (session_id, sequence) or (session_id, event_id) surface as ErrDuplicate.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(evt.EventID) == "" {
		return fmt.Errorf("event id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		evt.SessionID,
		int64(evt.Sequence),
		evt.EventID,
		evt.PlayerID,
		string(evt.ActorType),
		toMillis(evt.Timestamp),
		evt.DayIndex,
		string(evt.Weekday),
		evt.TurnNumber,
		string(evt.ActionType),
		evt.RulesetVersionID,
		evt.PayloadJSON,
		toMillis(evt.ReceivedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns a session's full history ordered by sequence.
func (s *Store) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE session_id = ? ORDER BY sequence",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEventsPage returns events with sequence >= fromSeq ordered by
// sequence, at most limit rows.
func (s *Store) ListEventsPage(ctx context.Context, sessionID string, fromSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE session_id = ? AND sequence >= ? ORDER BY sequence LIMIT ?",
		sessionID,
		int64(fromSeq),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events page: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountEvents returns the number of stored events for a session.
func (s *Store) CountEvents(ctx context.Context, sessionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return 0, fmt.Errorf("session id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE session_id = ?",
		sessionID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		var (
			evt        event.Event
			sequence   int64
			actorType  string
			weekday    string
			actionType string
			timestamp  int64
			receivedAt int64
		)
		if err := rows.Scan(
			&evt.SessionID,
			&sequence,
			&evt.EventID,
			&evt.PlayerID,
			&actorType,
			&timestamp,
			&evt.DayIndex,
			&weekday,
			&evt.TurnNumber,
			&actionType,
			&evt.RulesetVersionID,
			&evt.PayloadJSON,
			&receivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Sequence = uint64(sequence)
		evt.ActorType = event.ActorType(actorType)
		evt.Weekday = event.Weekday(weekday)
		evt.ActionType = event.ActionType(actionType)
		evt.Timestamp = fromMillis(timestamp)
		evt.ReceivedAt = fromMillis(receivedAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
