package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// PutSession upserts a session record.
func (s *Store) PutSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, mode, status, created_at, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   mode = excluded.mode,
		   status = excluded.status,
		   started_at = excluded.started_at,
		   ended_at = excluded.ended_at`,
		session.ID,
		string(session.Mode),
		string(session.Status),
		toMillis(session.CreatedAt),
		toMillis(session.StartedAt),
		toMillis(session.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	var (
		session   domain.Session
		mode      string
		status    string
		createdAt int64
		startedAt int64
		endedAt   int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, mode, status, created_at, started_at, ended_at FROM sessions WHERE id = ?",
		id,
	).Scan(&session.ID, &mode, &status, &createdAt, &startedAt, &endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	session.Mode = domain.Mode(mode)
	session.Status = domain.SessionStatus(status)
	session.CreatedAt = fromMillis(createdAt)
	session.StartedAt = fromMillis(startedAt)
	session.EndedAt = fromMillis(endedAt)
	return session, nil
}

// PutPlayer upserts a player record.
func (s *Store) PutPlayer(ctx context.Context, p domain.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(p.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (session_id, id, display_name, joined_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, id) DO UPDATE SET display_name = excluded.display_name`,
		p.SessionID,
		p.ID,
		p.DisplayName,
		toMillis(p.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

// GetPlayer retrieves a player by session and player id.
func (s *Store) GetPlayer(ctx context.Context, sessionID, playerID string) (domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return domain.Player{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Player{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.Player{}, fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return domain.Player{}, fmt.Errorf("player id is required")
	}

	var (
		p        domain.Player
		joinedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT session_id, id, display_name, joined_at FROM players WHERE session_id = ? AND id = ?",
		sessionID,
		playerID,
	).Scan(&p.SessionID, &p.ID, &p.DisplayName, &joinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Player{}, storage.ErrNotFound
		}
		return domain.Player{}, fmt.Errorf("get player: %w", err)
	}

	p.JoinedAt = fromMillis(joinedAt)
	return p, nil
}

// ListPlayers returns a session's players sorted by id.
func (s *Store) ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error) {
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
		"SELECT session_id, id, display_name, joined_at FROM players WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var (
			p        domain.Player
			joinedAt int64
		)
		if err := rows.Scan(&p.SessionID, &p.ID, &p.DisplayName, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.JoinedAt = fromMillis(joinedAt)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
