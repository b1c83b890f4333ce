package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// AppendProjection appends a derived ledger entry. At most one projection
// exists per event; replays surface as ErrDuplicate.
func (s *Store) AppendProjection(ctx context.Context, entry projection.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(entry.EventID) == "" {
		return fmt.Errorf("event id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO projections (session_id, player_id, event_id, timestamp, direction, amount, category, counterparty, reference, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.SessionID,
		entry.PlayerID,
		entry.EventID,
		toMillis(entry.Timestamp),
		entry.Direction,
		entry.Amount,
		entry.Category,
		entry.Counterparty,
		entry.Reference,
		entry.Note,
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("append projection: %w", err)
	}
	return nil
}

// ListProjections returns a session's ledger ordered by insertion.
func (s *Store) ListProjections(ctx context.Context, sessionID string) ([]projection.Entry, error) {
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
		"SELECT session_id, player_id, event_id, timestamp, direction, amount, category, counterparty, reference, note FROM projections WHERE session_id = ? ORDER BY rowid",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projections: %w", err)
	}
	defer rows.Close()

	var entries []projection.Entry
	for rows.Next() {
		var (
			entry     projection.Entry
			timestamp int64
		)
		if err := rows.Scan(
			&entry.SessionID,
			&entry.PlayerID,
			&entry.EventID,
			&timestamp,
			&entry.Direction,
			&entry.Amount,
			&entry.Category,
			&entry.Counterparty,
			&entry.Reference,
			&entry.Note,
		); err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		entry.Timestamp = fromMillis(timestamp)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projections: %w", err)
	}
	return entries, nil
}
