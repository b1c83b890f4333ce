package service

import (
	"context"
	"errors"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/platform/pagination"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/metrics"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// ListEvents returns a page of a session's events ordered strictly by
// sequence, starting at fromSeq. Limits are clamped to 1..200 with a
// default of 50.
func (s *Service) ListEvents(ctx context.Context, sessionID string, fromSeq uint64, limit int) ([]event.Event, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	limit = pagination.ClampLimit(limit, readPageConfig)
	return s.store.ListEventsPage(ctx, sessionID, fromSeq, limit)
}

// ListValidationLog returns a session's most recent audit entries.
func (s *Service) ListValidationLog(ctx context.Context, sessionID string, limit int) ([]storage.ValidationLogEntry, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	limit = pagination.ClampLimit(limit, readPageConfig)
	return s.store.ListValidationLog(ctx, sessionID, limit)
}

// LatestMetrics returns the current value per (player id, metric name)
// for a session.
func (s *Service) LatestMetrics(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.LatestSnapshots(ctx, sessionID)
}

// ComputeMetrics recomputes session and per-player metrics from full
// history and appends them as new snapshots.
func (s *Service) ComputeMetrics(ctx context.Context, sessionID string) ([]metrics.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.ComputeMetrics")
	defer span.End()

	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}

	current, err := s.store.CurrentActivation(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_NOT_CONFIGURED",
				"session has no activated ruleset version")
		}
		return nil, err
	}
	version, err := s.store.GetRulesetVersion(ctx, current.RulesetVersionID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.Resolve(version.ID, version.ConfigJSON)
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListProjections(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	violations, err := s.store.CountRejections(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.aggregator.Compute(ctx, metrics.Input{
		SessionID:        sessionID,
		RulesetVersionID: version.ID,
		Config:           cfg,
		Events:           events,
		Projections:      entries,
		ViolationCount:   violations,
		ComputedAt:       s.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendSnapshots(ctx, snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
