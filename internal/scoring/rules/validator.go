package rules

import (
	"math"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/ruleset"
)

// Context carries the read-only state a handler may consult. History holds
// the session's accepted events ordered by sequence; Projections holds the
// persisted ledger entries derived from them.
type Context struct {
	Config      ruleset.Config
	History     []event.Event
	Projections []projection.Entry
}

type handlerFunc func(v *Validator, ctx Context, evt event.Event) error

// Validator dispatches per-action-type domain validation.
//
// Handlers run their checks in a fixed order: structural payload
// validation, feature gates, stateful cross-event checks recomputed from
// history, and finally the balance floor for any action that withdraws
// cash. Action types without a registered handler pass through with no
// domain checks.
type Validator struct {
	handlers map[event.ActionType]handlerFunc
	balance  BalanceChecker
}

// NewValidator builds the dispatch table for all supported action types.
func NewValidator() *Validator {
	v := &Validator{balance: BalanceChecker{}}
	v.handlers = map[event.ActionType]handlerFunc{
		event.ActionTransactionRecorded:    (*Validator).validateTransaction,
		event.ActionFridayDonation:         (*Validator).validateDonation,
		event.ActionSaturdayGoldTrade:      (*Validator).validateGoldTrade,
		event.ActionTurnActionUsed:         (*Validator).validateTurnAction,
		event.ActionTurnEnded:              (*Validator).validateTurnEnded,
		event.ActionPrimaryNeedPurchased:   (*Validator).validatePrimaryNeed,
		event.ActionSecondaryNeedPurchased: (*Validator).validateSecondaryNeed,
		event.ActionTertiaryNeedPurchased:  (*Validator).validateSecondaryNeed,
		event.ActionIngredientPurchased:    (*Validator).validateIngredient,
		event.ActionOrderClaimed:           (*Validator).validateOrderClaim,
		event.ActionRiskLifeDrawn:          (*Validator).validateRiskDraw,
		event.ActionSavingDepositAdded:     (*Validator).validateSavingDeposit,
		event.ActionSavingDepositWithdrawn: (*Validator).validateSavingWithdraw,
		event.ActionSavingGoalAchieved:     (*Validator).validateSavingGoal,
		event.ActionLoanTaken:              (*Validator).validateLoanTaken,
		event.ActionLoanRepaid:             (*Validator).validateLoanRepaid,
		event.ActionMissionAssigned:        (*Validator).validateMission,
		event.ActionTieBreakerAssigned:     (*Validator).validateTieBreaker,
		event.ActionInsurancePremiumPaid:   (*Validator).validateInsurance,
		event.ActionFreelanceWorkCompleted: (*Validator).validateFreelance,
		event.ActionRankAwarded:            (*Validator).validateRankAwarded,
	}
	return v
}

// Validate applies the action type's domain rules to the event.
func (v *Validator) Validate(ctx Context, evt event.Event) error {
	handler, ok := v.handlers[evt.ActionType]
	if !ok {
		return nil
	}
	return handler(v, ctx, evt)
}

// requirePlayer rejects player-scoped actions submitted without a player id.
func requirePlayer(evt event.Event) error {
	if evt.PlayerID == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "player id is required for this action", "player_id")
	}
	return nil
}

// checkWithdrawal runs the balance floor check for an outgoing amount.
func (v *Validator) checkWithdrawal(ctx Context, playerID string, amount int64) error {
	return v.balance.Check(ctx.Projections, ctx.Config.StartingCash, ctx.Config.CashMin, playerID, amount)
}

func roundAmount(value float64) int64 {
	return int64(math.Round(value))
}
