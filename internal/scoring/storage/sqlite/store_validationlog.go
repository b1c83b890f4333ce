package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// RecordValidation inserts an audit entry. The (session_id, event_id)
// primary key makes replays a no-op rather than an error.
func (s *Store) RecordValidation(ctx context.Context, entry storage.ValidationLogEntry) error {
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
		"INSERT OR IGNORE INTO validation_log (session_id, event_id, action_type, outcome, error_code, rule_code, message, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		entry.SessionID,
		entry.EventID,
		entry.ActionType,
		entry.Outcome,
		entry.ErrorCode,
		entry.RuleCode,
		entry.Message,
		toMillis(entry.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("record validation: %w", err)
	}
	return nil
}

// ListValidationLog returns the most recent audit entries, newest first.
func (s *Store) ListValidationLog(ctx context.Context, sessionID string, limit int) ([]storage.ValidationLogEntry, error) {
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
		"SELECT session_id, event_id, action_type, outcome, error_code, rule_code, message, recorded_at FROM validation_log WHERE session_id = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?",
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list validation log: %w", err)
	}
	defer rows.Close()

	var entries []storage.ValidationLogEntry
	for rows.Next() {
		var (
			entry      storage.ValidationLogEntry
			recordedAt int64
		)
		if err := rows.Scan(
			&entry.SessionID,
			&entry.EventID,
			&entry.ActionType,
			&entry.Outcome,
			&entry.ErrorCode,
			&entry.RuleCode,
			&entry.Message,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan validation entry: %w", err)
		}
		entry.RecordedAt = fromMillis(recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation log: %w", err)
	}
	return entries, nil
}

// CountRejections returns the number of rejected attempts for a session.
func (s *Store) CountRejections(ctx context.Context, sessionID string) (int, error) {
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
		"SELECT COUNT(*) FROM validation_log WHERE session_id = ? AND outcome = ?",
		sessionID,
		storage.OutcomeRejected,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rejections: %w", err)
	}
	return count, nil
}
