package service

import (
	"context"
	"fmt"
)

const verifyPageSize = 200

// VerifySequence replays a session's stored events page by page and
// confirms the sequence invariant: numbers form {0..N-1} with unique
// event ids. It is a reconciliation oracle over the storage layer, not a
// validation step on the ingest path.
func (s *Service) VerifySequence(ctx context.Context, sessionID string) error {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	var next uint64
	for {
		page, err := s.store.ListEventsPage(ctx, sessionID, next, verifyPageSize)
		if err != nil {
			return fmt.Errorf("list events session_id=%s: %w", sessionID, err)
		}
		if len(page) == 0 {
			return nil
		}
		for _, evt := range page {
			if evt.Sequence != next {
				return fmt.Errorf("sequence gap session_id=%s expected=%d got=%d", sessionID, next, evt.Sequence)
			}
			if _, dup := seen[evt.EventID]; dup {
				return fmt.Errorf("duplicate event id session_id=%s event_id=%s", sessionID, evt.EventID)
			}
			seen[evt.EventID] = struct{}{}
			next++
		}
	}
}
