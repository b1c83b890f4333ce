package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/rules"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// SubmitResult reports an accepted event and its optional ledger entry.
type SubmitResult struct {
	Event      event.Event
	Projection *projection.Entry
}

// SubmitEvent runs the full ingestion pipeline for one event: session and
// version resolution, enum checks, player membership, the sequence gate,
// config resolution, domain rules, and finally the append. Every attempt,
// accepted or rejected, lands in the validation audit log.
func (s *Service) SubmitEvent(ctx context.Context, evt event.Event) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.SubmitEvent")
	defer span.End()

	result, err := s.submit(ctx, evt)
	s.recordAudit(ctx, evt, err)
	return result, err
}

func (s *Service) submit(ctx context.Context, evt event.Event) (SubmitResult, error) {
	if strings.TrimSpace(evt.SessionID) == "" {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "session id is required", "session_id")
	}
	if strings.TrimSpace(evt.EventID) == "" {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "event id is required", "event_id")
	}
	if !evt.ActionType.IsValid() {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "action type is required", "action_type")
	}

	mu := s.locks.lock(evt.SessionID)
	mu.Lock()
	defer mu.Unlock()

	return s.validateAndAppend(ctx, evt)
}

func (s *Service) validateAndAppend(ctx context.Context, evt event.Event) (SubmitResult, error) {
	session, err := s.store.GetSession(ctx, evt.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SubmitResult{}, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("session %s not found", evt.SessionID))
		}
		return SubmitResult{}, err
	}
	if session.Status != domain.SessionStarted {
		return SubmitResult{}, apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_NOT_STARTED",
			"events are only accepted while the session is started")
	}

	version, err := s.store.GetRulesetVersion(ctx, evt.RulesetVersionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SubmitResult{}, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("ruleset version %s not found", evt.RulesetVersionID))
		}
		return SubmitResult{}, err
	}
	current, err := s.store.CurrentActivation(ctx, evt.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SubmitResult{}, apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_NOT_CONFIGURED",
				"session has no activated ruleset version")
		}
		return SubmitResult{}, err
	}
	if current.RulesetVersionID != version.ID {
		return SubmitResult{}, apperrors.NewRule(apperrors.CodeDomainRule, "RULESET_VERSION_NOT_ACTIVE",
			fmt.Sprintf("ruleset version %s is not the session's active version", version.ID))
	}
	if version.Status != domain.VersionActive {
		return SubmitResult{}, apperrors.NewRule(apperrors.CodeDomainRule, "RULESET_VERSION_RETIRED",
			fmt.Sprintf("ruleset version %s is retired", version.ID))
	}

	if !evt.ActorType.IsValid() {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "actor type must be PLAYER or SYSTEM", "actor_type")
	}
	if !evt.Weekday.IsValid() {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "weekday is not a known value", "weekday")
	}
	if evt.DayIndex < 0 {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "day index must not be negative", "day_index")
	}
	if evt.TurnNumber < 0 {
		return SubmitResult{}, apperrors.WithFields(apperrors.CodeValidation, "turn number must not be negative", "turn_number")
	}

	if evt.PlayerID != "" {
		if _, err := s.store.GetPlayer(ctx, evt.SessionID, evt.PlayerID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return SubmitResult{}, apperrors.New(apperrors.CodeNotFound,
					fmt.Sprintf("player %s is not a member of session %s", evt.PlayerID, evt.SessionID))
			}
			return SubmitResult{}, err
		}
	}

	history, err := s.store.ListEvents(ctx, evt.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.gate.Check(history, evt); err != nil {
		return SubmitResult{}, err
	}

	cfg, err := s.configs.Resolve(version.ID, version.ConfigJSON)
	if err != nil {
		return SubmitResult{}, err
	}

	entries, err := s.store.ListProjections(ctx, evt.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := s.validator.Validate(rules.Context{
		Config:      cfg,
		History:     history,
		Projections: entries,
	}, evt); err != nil {
		return SubmitResult{}, err
	}

	// Cancellation is cooperative up to this point; once the append
	// succeeds the event is immutable.
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, err
	}

	evt.ReceivedAt = s.now()
	if err := s.store.AppendEvent(ctx, evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return SubmitResult{}, apperrors.NewRule(apperrors.CodeDuplicate, "DUPLICATE_EVENT",
				"event id or sequence number is already taken")
		}
		return SubmitResult{}, err
	}

	result := SubmitResult{Event: evt}
	if entry, ok := projection.DeriveWithIncome(evt, cfg.FreelanceIncome); ok {
		if err := s.store.AppendProjection(ctx, entry); err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return result, fmt.Errorf("append projection event_id=%s: %w", evt.EventID, err)
		}
		result.Projection = &entry
	}
	return result, nil
}

// recordAudit writes the per-attempt audit entry. Failures here are
// logged, never propagated; the caller's outcome already stands.
func (s *Service) recordAudit(ctx context.Context, evt event.Event, submitErr error) {
	if evt.SessionID == "" || evt.EventID == "" {
		return
	}

	entry := storage.ValidationLogEntry{
		SessionID:  evt.SessionID,
		EventID:    evt.EventID,
		ActionType: string(evt.ActionType),
		Outcome:    storage.OutcomeAccepted,
		RecordedAt: s.now(),
	}
	if submitErr != nil {
		entry.Outcome = storage.OutcomeRejected
		entry.ErrorCode = string(apperrors.GetCode(submitErr))
		entry.Message = submitErr.Error()
		var derr *apperrors.Error
		if errors.As(submitErr, &derr) {
			entry.RuleCode = derr.Rule
		}
	}

	if err := s.store.RecordValidation(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("record validation session_id=%s event_id=%s err=%v", evt.SessionID, evt.EventID, err)
	}
}

// BatchFailure names one rejected event in a batch.
type BatchFailure struct {
	EventID string
	Code    apperrors.Code
	Rule    string
	Message string
}

// BatchResult reports how a batch submission fared.
type BatchResult struct {
	Accepted int
	Failures []BatchFailure
}

// SubmitEvents processes events in submission order with per-event
// atomicity: a failing event is recorded as a named failure and does not
// block or roll back the rest of the batch.
func (s *Service) SubmitEvents(ctx context.Context, events []event.Event) (BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.SubmitEvents")
	defer span.End()

	var result BatchResult
	for _, evt := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.SubmitEvent(ctx, evt); err != nil {
			failure := BatchFailure{
				EventID: evt.EventID,
				Code:    apperrors.GetCode(err),
				Message: err.Error(),
			}
			var derr *apperrors.Error
			if errors.As(err, &derr) {
				failure.Rule = derr.Rule
			}
			result.Failures = append(result.Failures, failure)
			continue
		}
		result.Accepted++
	}
	return result, nil
}
