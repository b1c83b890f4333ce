package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/platform/id"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/ruleset"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
)

// CreateSession creates a session in CREATED state.
func (s *Service) CreateSession(ctx context.Context, mode domain.Mode) (domain.Session, error) {
	if !mode.IsValid() {
		return domain.Session{}, apperrors.WithFields(apperrors.CodeValidation, "mode must be PEMULA or MAHIR", "mode")
	}

	sessionID, err := id.NewID()
	if err != nil {
		return domain.Session{}, fmt.Errorf("new session id: %w", err)
	}

	session := domain.Session{
		ID:        sessionID,
		Mode:      mode,
		Status:    domain.SessionCreated,
		CreatedAt: s.now(),
	}
	if err := s.store.PutSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// StartSession transitions a session to STARTED. The session must already
// have an activated ruleset version; events are rejected otherwise and a
// started session without a config would be unusable.
func (s *Service) StartSession(ctx context.Context, sessionID string) (domain.Session, error) {
	mu := s.locks.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	if _, err := s.store.CurrentActivation(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_NOT_CONFIGURED",
				"session has no activated ruleset version")
		}
		return domain.Session{}, err
	}

	if err := session.Transition(domain.SessionStarted, s.now()); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.PutSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// EndSession transitions a session to ENDED.
func (s *Service) EndSession(ctx context.Context, sessionID string) (domain.Session, error) {
	mu := s.locks.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := session.Transition(domain.SessionEnded, s.now()); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.PutSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.getSession(ctx, sessionID)
}

// AddPlayer registers a player in a session. Players can only join before
// the session ends.
func (s *Service) AddPlayer(ctx context.Context, sessionID, displayName string) (domain.Player, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return domain.Player{}, err
	}
	if session.Status == domain.SessionEnded {
		return domain.Player{}, apperrors.NewRule(apperrors.CodeDomainRule, "SESSION_ENDED",
			"players cannot join an ended session")
	}

	playerID, err := id.NewID()
	if err != nil {
		return domain.Player{}, fmt.Errorf("new player id: %w", err)
	}

	player := domain.Player{
		ID:          playerID,
		SessionID:   sessionID,
		DisplayName: strings.TrimSpace(displayName),
		JoinedAt:    s.now(),
	}
	if err := s.store.PutPlayer(ctx, player); err != nil {
		return domain.Player{}, err
	}
	return player, nil
}

// ListPlayers returns a session's players.
func (s *Service) ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListPlayers(ctx, sessionID)
}

// CreateRuleset creates a named ruleset with no versions.
func (s *Service) CreateRuleset(ctx context.Context, name string) (domain.Ruleset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Ruleset{}, apperrors.WithFields(apperrors.CodeValidation, "name is required", "name")
	}

	rulesetID, err := id.NewID()
	if err != nil {
		return domain.Ruleset{}, fmt.Errorf("new ruleset id: %w", err)
	}

	r := domain.Ruleset{ID: rulesetID, Name: name, CreatedAt: s.now()}
	if err := s.store.PutRuleset(ctx, r); err != nil {
		return domain.Ruleset{}, err
	}
	return r, nil
}

// CreateRulesetVersion validates a config document and stores it as the
// ruleset's new ACTIVE version, retiring the previous one. Parsing failure
// is a hard gate; invalid configs are never persisted.
func (s *Service) CreateRulesetVersion(ctx context.Context, rulesetID string, configJSON []byte) (domain.RulesetVersion, error) {
	if _, err := ruleset.EvaluateStrict(configJSON); err != nil {
		return domain.RulesetVersion{}, err
	}

	r, err := s.store.GetRuleset(ctx, rulesetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.RulesetVersion{}, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("ruleset %s not found", rulesetID))
		}
		return domain.RulesetVersion{}, err
	}

	versions, err := s.store.ListRulesetVersions(ctx, r.ID)
	if err != nil {
		return domain.RulesetVersion{}, err
	}
	for _, prior := range versions {
		if prior.Status != domain.VersionActive {
			continue
		}
		prior.Status = domain.VersionRetired
		if err := s.store.PutRulesetVersion(ctx, prior); err != nil {
			return domain.RulesetVersion{}, err
		}
	}

	versionID, err := id.NewID()
	if err != nil {
		return domain.RulesetVersion{}, fmt.Errorf("new version id: %w", err)
	}

	version := domain.RulesetVersion{
		ID:         versionID,
		RulesetID:  r.ID,
		Number:     len(versions) + 1,
		Status:     domain.VersionActive,
		ConfigJSON: configJSON,
		CreatedAt:  s.now(),
	}
	if err := s.store.PutRulesetVersion(ctx, version); err != nil {
		return domain.RulesetVersion{}, err
	}
	return version, nil
}

// ActivateVersion binds a session to a ruleset version by appending a new
// activation record. Prior records are never mutated; re-activation just
// appends again.
func (s *Service) ActivateVersion(ctx context.Context, sessionID, versionID string) (domain.ActivationRecord, error) {
	mu := s.locks.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.getSession(ctx, sessionID); err != nil {
		return domain.ActivationRecord{}, err
	}

	version, err := s.store.GetRulesetVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ActivationRecord{}, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("ruleset version %s not found", versionID))
		}
		return domain.ActivationRecord{}, err
	}
	if version.Status != domain.VersionActive {
		return domain.ActivationRecord{}, apperrors.NewRule(apperrors.CodeDomainRule, "RULESET_VERSION_RETIRED",
			fmt.Sprintf("ruleset version %s is retired", versionID))
	}

	recordID, err := id.NewID()
	if err != nil {
		return domain.ActivationRecord{}, fmt.Errorf("new activation id: %w", err)
	}

	rec := domain.ActivationRecord{
		ID:               recordID,
		SessionID:        sessionID,
		RulesetVersionID: version.ID,
		ActivatedAt:      s.now(),
	}
	if err := s.store.AppendActivation(ctx, rec); err != nil {
		return domain.ActivationRecord{}, err
	}
	return rec, nil
}

func (s *Service) getSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Session{}, apperrors.WithFields(apperrors.CodeValidation, "session id is required", "session_id")
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("session %s not found", sessionID))
		}
		return domain.Session{}, err
	}
	return session, nil
}
