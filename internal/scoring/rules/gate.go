// Package rules validates incoming events against the active rule
// configuration and the session's full event history.
package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

// SequenceGate enforces strict, gapless per-session ordering and event-id
// idempotency before any domain rule runs.
type SequenceGate struct{}

// Check validates the incoming event's id and sequence number against the
// ordered history of accepted events.
//
// The first accepted event in a session must carry sequence 0; afterwards
// each event must carry exactly max+1. Identical resubmissions surface as
// DUPLICATE so clients can treat them as a retry no-op.
func (SequenceGate) Check(history []event.Event, evt event.Event) error {
	for _, prior := range history {
		if prior.EventID == evt.EventID {
			return apperrors.NewRule(apperrors.CodeDuplicate, "DUPLICATE_EVENT_ID",
				fmt.Sprintf("event id %s already exists in session", evt.EventID))
		}
	}

	if len(history) == 0 {
		if evt.Sequence != 0 {
			return apperrors.NewRule(apperrors.CodeDomainRule, "SEQUENCE_GAP",
				fmt.Sprintf("first event must carry sequence 0, got %d", evt.Sequence))
		}
		return nil
	}

	maxSeq := history[len(history)-1].Sequence
	switch {
	case evt.Sequence < maxSeq:
		return apperrors.NewRule(apperrors.CodeDomainRule, "SEQUENCE_STALE",
			fmt.Sprintf("sequence %d is behind current max %d", evt.Sequence, maxSeq))
	case evt.Sequence == maxSeq:
		return apperrors.NewRule(apperrors.CodeDuplicate, "DUPLICATE_SEQUENCE",
			fmt.Sprintf("sequence %d is already taken", evt.Sequence))
	case evt.Sequence > maxSeq+1:
		return apperrors.NewRule(apperrors.CodeDomainRule, "SEQUENCE_GAP",
			fmt.Sprintf("sequence %d leaves a gap after %d", evt.Sequence, maxSeq))
	}
	return nil
}
