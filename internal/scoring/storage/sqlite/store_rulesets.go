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

// PutRuleset upserts a ruleset record.
func (s *Store) PutRuleset(ctx context.Context, r domain.Ruleset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("ruleset id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rulesets (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		r.ID,
		r.Name,
		toMillis(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put ruleset: %w", err)
	}
	return nil
}

// GetRuleset retrieves a ruleset by id.
func (s *Store) GetRuleset(ctx context.Context, id string) (domain.Ruleset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ruleset{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Ruleset{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return domain.Ruleset{}, fmt.Errorf("ruleset id is required")
	}

	var (
		r         domain.Ruleset
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM rulesets WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ruleset{}, storage.ErrNotFound
		}
		return domain.Ruleset{}, fmt.Errorf("get ruleset: %w", err)
	}

	r.CreatedAt = fromMillis(createdAt)
	return r, nil
}

// PutRulesetVersion upserts a ruleset version record. Config payloads are
// immutable; only the status column changes after creation.
func (s *Store) PutRulesetVersion(ctx context.Context, v domain.RulesetVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("ruleset version id is required")
	}
	if strings.TrimSpace(v.RulesetID) == "" {
		return fmt.Errorf("ruleset id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO ruleset_versions (id, ruleset_id, number, status, config_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		v.ID,
		v.RulesetID,
		v.Number,
		string(v.Status),
		v.ConfigJSON,
		toMillis(v.CreatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("put ruleset version: %w", err)
	}
	return nil
}

// GetRulesetVersion retrieves a ruleset version by id.
func (s *Store) GetRulesetVersion(ctx context.Context, id string) (domain.RulesetVersion, error) {
	if err := ctx.Err(); err != nil {
		return domain.RulesetVersion{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.RulesetVersion{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return domain.RulesetVersion{}, fmt.Errorf("ruleset version id is required")
	}

	var (
		v         domain.RulesetVersion
		status    string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, ruleset_id, number, status, config_json, created_at FROM ruleset_versions WHERE id = ?",
		id,
	).Scan(&v.ID, &v.RulesetID, &v.Number, &status, &v.ConfigJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RulesetVersion{}, storage.ErrNotFound
		}
		return domain.RulesetVersion{}, fmt.Errorf("get ruleset version: %w", err)
	}

	v.Status = domain.VersionStatus(status)
	v.CreatedAt = fromMillis(createdAt)
	return v, nil
}

// ListRulesetVersions returns a ruleset's versions ordered by number.
func (s *Store) ListRulesetVersions(ctx context.Context, rulesetID string) ([]domain.RulesetVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rulesetID) == "" {
		return nil, fmt.Errorf("ruleset id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT id, ruleset_id, number, status, config_json, created_at FROM ruleset_versions WHERE ruleset_id = ? ORDER BY number",
		rulesetID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ruleset versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.RulesetVersion
	for rows.Next() {
		var (
			v         domain.RulesetVersion
			status    string
			createdAt int64
		)
		if err := rows.Scan(&v.ID, &v.RulesetID, &v.Number, &status, &v.ConfigJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ruleset version: %w", err)
		}
		v.Status = domain.VersionStatus(status)
		v.CreatedAt = fromMillis(createdAt)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ruleset versions: %w", err)
	}
	return versions, nil
}

// AppendActivation records a session/version binding in the activation log.
func (s *Store) AppendActivation(ctx context.Context, rec domain.ActivationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("activation id is required")
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(rec.RulesetVersionID) == "" {
		return fmt.Errorf("ruleset version id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO activation_log (id, session_id, ruleset_version_id, activated_at) VALUES (?, ?, ?, ?)",
		rec.ID,
		rec.SessionID,
		rec.RulesetVersionID,
		toMillis(rec.ActivatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("append activation: %w", err)
	}
	return nil
}

// CurrentActivation returns the latest activation record for a session.
func (s *Store) CurrentActivation(ctx context.Context, sessionID string) (domain.ActivationRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActivationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ActivationRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.ActivationRecord{}, fmt.Errorf("session id is required")
	}

	var (
		rec         domain.ActivationRecord
		activatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, session_id, ruleset_version_id, activated_at FROM activation_log WHERE session_id = ? ORDER BY activated_at DESC, rowid DESC LIMIT 1",
		sessionID,
	).Scan(&rec.ID, &rec.SessionID, &rec.RulesetVersionID, &activatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ActivationRecord{}, storage.ErrNotFound
		}
		return domain.ActivationRecord{}, fmt.Errorf("get current activation: %w", err)
	}

	rec.ActivatedAt = fromMillis(activatedAt)
	return rec, nil
}
