package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func (v *Validator) validateTurnAction(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.TurnActionPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Used <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "used must be greater than zero", "payload.used")
	}

	used := actionsUsed(ctx.History, evt.PlayerID, evt.TurnNumber)
	if used+payload.Used > ctx.Config.ActionsPerTurn {
		return apperrors.NewRule(apperrors.CodeDomainRule, "ACTIONS_PER_TURN_EXCEEDED",
			fmt.Sprintf("using %d more actions would exceed the per-turn budget of %d",
				payload.Used, ctx.Config.ActionsPerTurn))
	}
	return nil
}

// validateTurnEnded enforces the MAHIR order/risk pairing rule: every
// player with activity in the ending turn must have claimed exactly as
// many orders as risk cards drawn. Players without activity that turn are
// not checked.
func (v *Validator) validateTurnEnded(ctx Context, evt event.Event) error {
	if ctx.Config.Mode != domain.ModeMahir {
		return nil
	}

	activity := make(map[string]struct{})
	for _, prior := range ctx.History {
		if prior.TurnNumber == evt.TurnNumber && prior.PlayerID != "" {
			activity[prior.PlayerID] = struct{}{}
		}
	}

	for playerID := range activity {
		claims := countPlayerTurnActions(ctx.History, playerID, evt.TurnNumber, event.ActionOrderClaimed)
		draws := countPlayerTurnActions(ctx.History, playerID, evt.TurnNumber, event.ActionRiskLifeDrawn)
		if claims != draws {
			return apperrors.NewRule(apperrors.CodeDomainRule, "TURN_PAIRING_MISMATCH",
				fmt.Sprintf("player %s has %d order claims but %d risk draws in turn %d",
					playerID, claims, draws, evt.TurnNumber))
		}
	}
	return nil
}

func (v *Validator) validateRiskDraw(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.RiskLifePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Direction != event.DirectionIn && payload.Direction != event.DirectionOut {
		return apperrors.WithFields(apperrors.CodeValidation, "direction must be IN or OUT", "payload.direction")
	}
	if payload.Amount < 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must not be negative", "payload.amount")
	}

	if ctx.Config.Mode != domain.ModeMahir {
		return apperrors.NewRule(apperrors.CodeDomainRule, "RISK_DRAW_MODE_FORBIDDEN",
			"risk draws are only available in MAHIR mode")
	}

	// One risk draw is unlocked per order claim within the same turn.
	claims := countPlayerTurnActions(ctx.History, evt.PlayerID, evt.TurnNumber, event.ActionOrderClaimed)
	draws := countPlayerTurnActions(ctx.History, evt.PlayerID, evt.TurnNumber, event.ActionRiskLifeDrawn)
	if draws >= claims {
		return apperrors.NewRule(apperrors.CodeDomainRule, "RISK_DRAW_NOT_UNLOCKED",
			fmt.Sprintf("%d risk draws already recorded against %d order claims this turn", draws, claims))
	}

	if payload.Direction == event.DirectionOut && payload.Amount > 0 {
		return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
	}
	return nil
}

// actionsUsed sums action tokens already recorded for a player and turn.
func actionsUsed(history []event.Event, playerID string, turn int) int {
	used := 0
	for _, prior := range history {
		if prior.ActionType != event.ActionTurnActionUsed ||
			prior.PlayerID != playerID ||
			prior.TurnNumber != turn {
			continue
		}
		var payload event.TurnActionPayload
		if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil {
			continue
		}
		used += payload.Used
	}
	return used
}

func countPlayerTurnActions(history []event.Event, playerID string, turn int, action event.ActionType) int {
	count := 0
	for _, prior := range history {
		if prior.ActionType == action && prior.PlayerID == playerID && prior.TurnNumber == turn {
			count++
		}
	}
	return count
}
