package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func (v *Validator) validateSavingDeposit(ctx Context, evt event.Event) error {
	payload, err := savingPayload(evt)
	if err != nil {
		return err
	}
	if !ctx.Config.SavingGoalEnabled {
		return savingDisabled()
	}
	return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
}

func (v *Validator) validateSavingWithdraw(ctx Context, evt event.Event) error {
	payload, err := savingPayload(evt)
	if err != nil {
		return err
	}
	if !ctx.Config.SavingGoalEnabled {
		return savingDisabled()
	}

	balance := savingBalance(ctx.History, evt.PlayerID, payload.GoalID)
	amount := roundAmount(payload.Amount)
	if balance < amount {
		return apperrors.NewRule(apperrors.CodeDomainRule, "SAVING_INSUFFICIENT_BALANCE",
			fmt.Sprintf("goal balance %d cannot cover withdrawal of %d", balance, amount))
	}
	return nil
}

func (v *Validator) validateSavingGoal(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.SavingGoalAchievedPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.GoalID == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "goal_id is required", "payload.goal_id")
	}
	if payload.Cost <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "cost must be greater than zero", "payload.cost")
	}
	if !ctx.Config.SavingGoalEnabled {
		return savingDisabled()
	}

	balance := savingBalance(ctx.History, evt.PlayerID, payload.GoalID)
	cost := roundAmount(payload.Cost)
	if balance < cost {
		return apperrors.NewRule(apperrors.CodeDomainRule, "SAVING_INSUFFICIENT_BALANCE",
			fmt.Sprintf("goal balance %d cannot cover cost of %d", balance, cost))
	}
	return nil
}

func (v *Validator) validateLoanTaken(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.LoanTakenPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.LoanID == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "loan_id is required", "payload.loan_id")
	}
	if payload.Principal <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "principal must be greater than zero", "payload.principal")
	}
	if !ctx.Config.LoanEnabled {
		return apperrors.NewRule(apperrors.CodeDomainRule, "LOAN_DISABLED",
			"loans are disabled by the ruleset")
	}

	if _, exists := loanPrincipal(ctx.History, evt.PlayerID, payload.LoanID); exists {
		return apperrors.NewRule(apperrors.CodeDomainRule, "LOAN_DUPLICATE_ID",
			fmt.Sprintf("loan %s was already taken by this player", payload.LoanID))
	}
	return nil
}

func (v *Validator) validateLoanRepaid(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.LoanRepaidPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.LoanID == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "loan_id is required", "payload.loan_id")
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}
	if !ctx.Config.LoanEnabled {
		return apperrors.NewRule(apperrors.CodeDomainRule, "LOAN_DISABLED",
			"loans are disabled by the ruleset")
	}

	principal, exists := loanPrincipal(ctx.History, evt.PlayerID, payload.LoanID)
	if !exists {
		return apperrors.NewRule(apperrors.CodeDomainRule, "LOAN_NOT_TAKEN",
			fmt.Sprintf("no loan %s exists for this player", payload.LoanID))
	}
	outstanding := principal - loanRepaidTotal(ctx.History, evt.PlayerID, payload.LoanID)
	amount := roundAmount(payload.Amount)
	if amount > outstanding {
		return apperrors.NewRule(apperrors.CodeDomainRule, "LOAN_OVERPAYMENT",
			fmt.Sprintf("repayment of %d exceeds outstanding principal of %d", amount, outstanding))
	}

	return v.checkWithdrawal(ctx, evt.PlayerID, amount)
}

func (v *Validator) validateMission(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.MissionPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.MissionID == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "mission_id is required", "payload.mission_id")
	}

	if hasAction(ctx.History, evt.PlayerID, event.ActionMissionAssigned) {
		return apperrors.NewRule(apperrors.CodeDomainRule, "MISSION_ALREADY_ASSIGNED",
			"a mission was already assigned to this player")
	}
	return nil
}

func (v *Validator) validateTieBreaker(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	if hasAction(ctx.History, evt.PlayerID, event.ActionTieBreakerAssigned) {
		return apperrors.NewRule(apperrors.CodeDomainRule, "TIE_BREAKER_ALREADY_ASSIGNED",
			"a tie breaker was already assigned to this player")
	}
	return nil
}

func (v *Validator) validateInsurance(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.InsurancePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Premium <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "premium must be greater than zero", "payload.premium")
	}
	if !ctx.Config.InsuranceEnabled {
		return apperrors.NewRule(apperrors.CodeDomainRule, "INSURANCE_DISABLED",
			"insurance is disabled by the ruleset")
	}
	return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Premium))
}

func (v *Validator) validateFreelance(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.FreelancePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Qty < 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "qty must not be negative", "payload.qty")
	}
	return nil
}

func (v *Validator) validateRankAwarded(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.RankAwardedPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Rank <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "rank must be greater than zero", "payload.rank")
	}

	if ctx.Config.RankPoints != nil {
		if _, ok := ctx.Config.RankPoints[payload.Rank]; !ok {
			return apperrors.NewRule(apperrors.CodeDomainRule, "RANK_NOT_IN_TABLE",
				fmt.Sprintf("rank %d has no entry in the scoring table", payload.Rank))
		}
	}
	return nil
}

func savingPayload(evt event.Event) (event.SavingDepositPayload, error) {
	var payload event.SavingDepositPayload
	if err := requirePlayer(evt); err != nil {
		return payload, err
	}
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return payload, err
	}
	if payload.GoalID == "" {
		return payload, apperrors.WithFields(apperrors.CodeValidation, "goal_id is required", "payload.goal_id")
	}
	if payload.Amount <= 0 {
		return payload, apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}
	return payload, nil
}

func savingDisabled() error {
	return apperrors.NewRule(apperrors.CodeDomainRule, "SAVING_GOAL_DISABLED",
		"saving goals are disabled by the ruleset")
}

// savingBalance recomputes a goal's balance: deposits minus withdrawals
// minus achieved goal costs, filtered by goal id.
func savingBalance(history []event.Event, playerID, goalID string) int64 {
	var balance int64
	for _, prior := range history {
		if prior.PlayerID != playerID {
			continue
		}
		switch prior.ActionType {
		case event.ActionSavingDepositAdded:
			var payload event.SavingDepositPayload
			if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil || payload.GoalID != goalID {
				continue
			}
			balance += roundAmount(payload.Amount)

		case event.ActionSavingDepositWithdrawn:
			var payload event.SavingDepositPayload
			if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil || payload.GoalID != goalID {
				continue
			}
			balance -= roundAmount(payload.Amount)

		case event.ActionSavingGoalAchieved:
			var payload event.SavingGoalAchievedPayload
			if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil || payload.GoalID != goalID {
				continue
			}
			balance -= roundAmount(payload.Cost)
		}
	}
	return balance
}

func loanPrincipal(history []event.Event, playerID, loanID string) (int64, bool) {
	for _, prior := range history {
		if prior.ActionType != event.ActionLoanTaken || prior.PlayerID != playerID {
			continue
		}
		var payload event.LoanTakenPayload
		if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil || payload.LoanID != loanID {
			continue
		}
		return roundAmount(payload.Principal), true
	}
	return 0, false
}

func loanRepaidTotal(history []event.Event, playerID, loanID string) int64 {
	var total int64
	for _, prior := range history {
		if prior.ActionType != event.ActionLoanRepaid || prior.PlayerID != playerID {
			continue
		}
		var payload event.LoanRepaidPayload
		if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil || payload.LoanID != loanID {
			continue
		}
		total += roundAmount(payload.Amount)
	}
	return total
}

func hasAction(history []event.Event, playerID string, action event.ActionType) bool {
	for _, prior := range history {
		if prior.ActionType == action && prior.PlayerID == playerID {
			return true
		}
	}
	return false
}
