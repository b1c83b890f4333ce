package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func (v *Validator) validateTransaction(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.TransactionPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Direction != event.DirectionIn && payload.Direction != event.DirectionOut {
		return apperrors.WithFields(apperrors.CodeValidation, "direction must be IN or OUT", "payload.direction")
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}
	if payload.Category == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "category is required", "payload.category")
	}
	if payload.Counterparty != "" &&
		payload.Counterparty != event.CounterpartyBank &&
		payload.Counterparty != event.CounterpartyPlayer {
		return apperrors.WithFields(apperrors.CodeValidation, "counterparty must be BANK or PLAYER", "payload.counterparty")
	}

	if payload.Direction == event.DirectionOut {
		return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
	}
	return nil
}

func (v *Validator) validateDonation(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.DonationPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}

	if !ctx.Config.FridayDonationEnabled {
		return apperrors.NewRule(apperrors.CodeDomainRule, "DONATION_DISABLED",
			"friday donation is disabled by the ruleset")
	}
	if evt.Weekday != event.WeekdayFriday {
		return apperrors.NewRule(apperrors.CodeDomainRule, "DONATION_WRONG_WEEKDAY",
			"donations are only allowed on Friday")
	}

	amount := roundAmount(payload.Amount)
	if amount < ctx.Config.DonationMin || amount > ctx.Config.DonationMax {
		return apperrors.NewRule(apperrors.CodeDomainRule, "DONATION_OUT_OF_RANGE",
			fmt.Sprintf("donation of %d is outside the allowed range %d..%d",
				amount, ctx.Config.DonationMin, ctx.Config.DonationMax))
	}

	return v.checkWithdrawal(ctx, evt.PlayerID, amount)
}

func (v *Validator) validateGoldTrade(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.GoldTradePayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Side != event.GoldSideBuy && payload.Side != event.GoldSideSell {
		return apperrors.WithFields(apperrors.CodeValidation, "side must be BUY or SELL", "payload.side")
	}
	if payload.Qty <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "qty must be greater than zero", "payload.qty")
	}
	if payload.UnitPrice <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "unit_price must be greater than zero", "payload.unit_price")
	}

	if !ctx.Config.SaturdayGoldTradeEnabled {
		return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_TRADE_DISABLED",
			"saturday gold trade is disabled by the ruleset")
	}
	if evt.Weekday != event.WeekdaySaturday {
		return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_TRADE_WRONG_WEEKDAY",
			"gold trades are only allowed on Saturday")
	}

	if roundAmount(payload.Amount) != roundAmount(float64(payload.Qty)*payload.UnitPrice) {
		return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_AMOUNT_MISMATCH",
			"amount must equal qty times unit_price")
	}

	switch payload.Side {
	case event.GoldSideBuy:
		if !ctx.Config.GoldBuyEnabled {
			return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_BUY_DISABLED",
				"gold buying is disabled by the ruleset")
		}
		return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))

	case event.GoldSideSell:
		if !ctx.Config.GoldSellEnabled {
			return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_SELL_DISABLED",
				"gold selling is disabled by the ruleset")
		}
		net := goldNetQty(ctx.History, evt.PlayerID)
		if net < payload.Qty {
			return apperrors.NewRule(apperrors.CodeDomainRule, "GOLD_INSUFFICIENT_QTY",
				fmt.Sprintf("cannot sell %d gold with net holdings of %d", payload.Qty, net))
		}
	}
	return nil
}

// goldNetQty recomputes a player's net gold quantity over all prior gold
// trades: sum of BUY qty minus sum of SELL qty.
func goldNetQty(history []event.Event, playerID string) int {
	net := 0
	for _, prior := range history {
		if prior.ActionType != event.ActionSaturdayGoldTrade || prior.PlayerID != playerID {
			continue
		}
		var payload event.GoldTradePayload
		if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil {
			continue
		}
		switch payload.Side {
		case event.GoldSideBuy:
			net += payload.Qty
		case event.GoldSideSell:
			net -= payload.Qty
		}
	}
	return net
}
