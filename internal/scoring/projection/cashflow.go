// Package projection derives canonical cashflow ledger entries from
// accepted events.
package projection

import (
	"math"
	"time"

	"github.com/dompetkecil/scoring/internal/scoring/event"
)

// Ledger categories for derived entries. transaction.recorded carries its
// category verbatim from the payload.
const (
	CategoryDonation      = "DONATION"
	CategoryGold          = "GOLD"
	CategoryNeedPrimary   = "NEED_PRIMARY"
	CategoryNeedSecondary = "NEED_SECONDARY"
	CategoryNeedTertiary  = "NEED_TERTIARY"
	CategoryIngredient    = "INGREDIENT"
	CategoryOrder         = "ORDER"
	CategoryRiskLife      = "RISK_LIFE"
	CategorySaving        = "SAVING"
	CategoryLoan          = "LOAN"
	CategoryInsurance     = "INSURANCE"
	CategoryFreelance     = "FREELANCE"
)

// Entry is a derived cashflow ledger record, at most one per event.
type Entry struct {
	SessionID    string
	PlayerID     string
	EventID      string
	Timestamp    time.Time
	Direction    string
	Amount       int64
	Category     string
	Counterparty string
	Reference    string
	Note         string
}

// Derive maps an accepted event to its optional ledger entry.
//
// The mapping table is fixed per action type. Non-cash actions yield no
// entry. Fractional amounts are rounded to the nearest integer. An amount
// of zero or below, or an empty direction, suppresses the entry entirely:
// Derive runs only after the event was accepted, so a malformed payload
// here is a no-op rather than an error.
func Derive(evt event.Event) (Entry, bool) {
	entry := Entry{
		SessionID: evt.SessionID,
		PlayerID:  evt.PlayerID,
		EventID:   evt.EventID,
		Timestamp: evt.Timestamp,
	}

	switch evt.ActionType {
	case event.ActionTransactionRecorded:
		var payload event.TransactionPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = payload.Direction
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = payload.Category
		entry.Counterparty = payload.Counterparty
		entry.Reference = payload.Reference
		entry.Note = payload.Note

	case event.ActionFridayDonation:
		var payload event.DonationPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategoryDonation

	case event.ActionSaturdayGoldTrade:
		var payload event.GoldTradePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		if payload.Side == event.GoldSideBuy {
			entry.Direction = event.DirectionOut
		} else if payload.Side == event.GoldSideSell {
			entry.Direction = event.DirectionIn
		}
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategoryGold

	case event.ActionPrimaryNeedPurchased, event.ActionSecondaryNeedPurchased, event.ActionTertiaryNeedPurchased:
		var payload event.NeedPurchasePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = needCategory(evt.ActionType)
		entry.Note = payload.Item

	case event.ActionIngredientPurchased:
		var payload event.IngredientPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategoryIngredient
		entry.Note = payload.CardType

	case event.ActionOrderClaimed:
		var payload event.OrderPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionIn
		entry.Amount = roundAmount(payload.Income)
		entry.Category = CategoryOrder
		entry.Reference = payload.OrderID

	case event.ActionRiskLifeDrawn:
		var payload event.RiskLifePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = payload.Direction
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategoryRiskLife
		entry.Note = payload.Card

	case event.ActionSavingDepositAdded:
		var payload event.SavingDepositPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategorySaving
		entry.Reference = payload.GoalID

	case event.ActionSavingDepositWithdrawn:
		var payload event.SavingDepositPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionIn
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategorySaving
		entry.Reference = payload.GoalID

	case event.ActionLoanTaken:
		var payload event.LoanTakenPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionIn
		entry.Amount = roundAmount(payload.Principal)
		entry.Category = CategoryLoan
		entry.Reference = payload.LoanID
		entry.Counterparty = event.CounterpartyBank

	case event.ActionLoanRepaid:
		var payload event.LoanRepaidPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Amount)
		entry.Category = CategoryLoan
		entry.Reference = payload.LoanID
		entry.Counterparty = event.CounterpartyBank

	case event.ActionInsurancePremiumPaid:
		var payload event.InsurancePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		entry.Direction = event.DirectionOut
		entry.Amount = roundAmount(payload.Premium)
		entry.Category = CategoryInsurance

	case event.ActionFreelanceWorkCompleted:
		var payload event.FreelancePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			return Entry{}, false
		}
		qty := payload.Qty
		if qty <= 0 {
			qty = 1
		}
		entry.Direction = event.DirectionIn
		entry.Amount = int64(qty)
		entry.Category = CategoryFreelance

	default:
		// Assignments, awards, turn bookkeeping and saving.goal.achieved
		// move no cash.
		return Entry{}, false
	}

	if entry.Direction == "" || entry.Amount <= 0 {
		return Entry{}, false
	}
	return entry, true
}

// DeriveWithIncome is Derive with the configured freelance income applied
// to work.freelance.completed entries (amount = income per completion x qty).
func DeriveWithIncome(evt event.Event, freelanceIncome int64) (Entry, bool) {
	entry, ok := Derive(evt)
	if !ok {
		return Entry{}, false
	}
	if evt.ActionType == event.ActionFreelanceWorkCompleted && freelanceIncome > 0 {
		entry.Amount *= freelanceIncome
	}
	return entry, true
}

func roundAmount(value float64) int64 {
	return int64(math.Round(value))
}

func needCategory(action event.ActionType) string {
	switch action {
	case event.ActionPrimaryNeedPurchased:
		return CategoryNeedPrimary
	case event.ActionSecondaryNeedPurchased:
		return CategoryNeedSecondary
	default:
		return CategoryNeedTertiary
	}
}
