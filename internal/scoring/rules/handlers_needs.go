package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func (v *Validator) validatePrimaryNeed(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.NeedPurchasePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}

	cap := ctx.Config.PrimaryNeedMaxPerDay
	if cap == 0 {
		return apperrors.NewRule(apperrors.CodeDomainRule, "PRIMARY_NEED_DISABLED",
			"primary need purchases are disabled by the ruleset")
	}
	purchased := primaryNeedCount(ctx.History, evt.PlayerID, evt.DayIndex)
	if purchased >= cap {
		return apperrors.NewRule(apperrors.CodeDomainRule, "PRIMARY_NEED_DAILY_CAP",
			fmt.Sprintf("daily cap of %d primary need purchases reached", cap))
	}

	return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
}

// validateSecondaryNeed handles both secondary and tertiary purchases; the
// ordering constraint applies equally to both tiers.
func (v *Validator) validateSecondaryNeed(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.NeedPurchasePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}

	if ctx.Config.RequirePrimaryBeforeOthers &&
		primaryNeedCount(ctx.History, evt.PlayerID, evt.DayIndex) == 0 {
		return apperrors.NewRule(apperrors.CodeDomainRule, "PRIMARY_NEED_REQUIRED_FIRST",
			"a primary need purchase is required before other tiers that day")
	}

	return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
}

// primaryNeedCount counts a player's accepted primary need purchases on a day.
func primaryNeedCount(history []event.Event, playerID string, dayIndex int) int {
	count := 0
	for _, prior := range history {
		if prior.ActionType == event.ActionPrimaryNeedPurchased &&
			prior.PlayerID == playerID &&
			prior.DayIndex == dayIndex {
			count++
		}
	}
	return count
}
