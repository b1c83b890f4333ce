package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func (v *Validator) validateIngredient(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.IngredientPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.CardType == "" {
		return apperrors.WithFields(apperrors.CodeValidation, "card_type is required", "payload.card_type")
	}
	if payload.Qty <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "qty must be greater than zero", "payload.qty")
	}
	if payload.Amount <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "amount must be greater than zero", "payload.amount")
	}

	inventory := ingredientInventory(ctx.History, evt.PlayerID)
	total := 0
	for _, qty := range inventory {
		total += qty
	}
	if total+payload.Qty > ctx.Config.MaxIngredientTotal {
		return apperrors.NewRule(apperrors.CodeDomainRule, "INGREDIENT_TOTAL_CAP",
			fmt.Sprintf("purchase would raise inventory to %d, above the cap of %d",
				total+payload.Qty, ctx.Config.MaxIngredientTotal))
	}
	if inventory[payload.CardType]+payload.Qty > ctx.Config.MaxSameIngredient {
		return apperrors.NewRule(apperrors.CodeDomainRule, "INGREDIENT_TYPE_CAP",
			fmt.Sprintf("purchase would raise %s holdings to %d, above the cap of %d",
				payload.CardType, inventory[payload.CardType]+payload.Qty, ctx.Config.MaxSameIngredient))
	}

	return v.checkWithdrawal(ctx, evt.PlayerID, roundAmount(payload.Amount))
}

func (v *Validator) validateOrderClaim(ctx Context, evt event.Event) error {
	if err := requirePlayer(evt); err != nil {
		return err
	}
	var payload event.OrderPayload
	if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
		return err
	}
	if payload.Income <= 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "income must be greater than zero", "payload.income")
	}
	if len(payload.Ingredients) == 0 {
		return apperrors.WithFields(apperrors.CodeValidation, "ingredients are required", "payload.ingredients")
	}

	// Decrement a working copy so duplicate requirements are checked
	// against remaining stock.
	remaining := ingredientInventory(ctx.History, evt.PlayerID)
	for _, card := range payload.Ingredients {
		if remaining[card] <= 0 {
			return apperrors.NewRule(apperrors.CodeDomainRule, "ORDER_INGREDIENT_UNAVAILABLE",
				fmt.Sprintf("ingredient %s is not available in inventory", card))
		}
		remaining[card]--
	}
	return nil
}

// ingredientInventory recomputes a player's current ingredient holdings:
// purchases minus the cards consumed by accepted order claims, replayed
// oldest-first and clamped at zero per card type.
func ingredientInventory(history []event.Event, playerID string) map[string]int {
	inventory := make(map[string]int)
	for _, prior := range history {
		if prior.PlayerID != playerID {
			continue
		}
		switch prior.ActionType {
		case event.ActionIngredientPurchased:
			var payload event.IngredientPayload
			if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil {
				continue
			}
			inventory[payload.CardType] += payload.Qty

		case event.ActionOrderClaimed:
			var payload event.OrderPayload
			if err := event.DecodePayload(prior.PayloadJSON, &payload); err != nil {
				continue
			}
			for _, card := range payload.Ingredients {
				if inventory[card] > 0 {
					inventory[card]--
				}
			}
		}
	}
	return inventory
}
