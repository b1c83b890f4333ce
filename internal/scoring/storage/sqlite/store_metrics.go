package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dompetkecil/scoring/internal/scoring/metrics"
)

const snapshotColumns = "session_id, player_id, ruleset_version_id, name, value, value_json, computed_at"

// AppendSnapshots inserts metric snapshots in one transaction. Prior
// snapshots are never touched; recomputation only appends.
func (s *Store) AppendSnapshots(ctx context.Context, snapshots []metrics.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, snap := range snapshots {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO metric_snapshots ("+snapshotColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			snap.SessionID,
			snap.PlayerID,
			snap.RulesetVersionID,
			snap.Name,
			snap.Value,
			snap.ValueJSON,
			toMillis(snap.ComputedAt),
		); err != nil {
			return fmt.Errorf("append snapshot %s: %w", snap.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListSnapshots returns all snapshots for a session in append order.
func (s *Store) ListSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
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
		"SELECT "+snapshotColumns+" FROM metric_snapshots WHERE session_id = ? ORDER BY rowid",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// LatestSnapshots returns the latest snapshot per (player id, metric name)
// for a session, by computed_at with insertion order breaking ties.
func (s *Store) LatestSnapshots(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
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
		`SELECT `+snapshotColumns+` FROM metric_snapshots
		 WHERE session_id = ? AND rowid IN (
		   SELECT MAX(rowid) FROM metric_snapshots
		   WHERE session_id = ?
		   GROUP BY player_id, name
		 )
		 ORDER BY player_id, name`,
		sessionID,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]metrics.Snapshot, error) {
	var snapshots []metrics.Snapshot
	for rows.Next() {
		var (
			snap       metrics.Snapshot
			computedAt int64
		)
		if err := rows.Scan(
			&snap.SessionID,
			&snap.PlayerID,
			&snap.RulesetVersionID,
			&snap.Name,
			&snap.Value,
			&snap.ValueJSON,
			&computedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.ComputedAt = fromMillis(computedAt)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}
