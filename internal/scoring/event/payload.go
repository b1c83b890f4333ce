package event

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
)

// Cashflow directions used in payloads and projections.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Gold trade sides.
const (
	GoldSideBuy  = "BUY"
	GoldSideSell = "SELL"
)

// Counterparty tags for transactions.
const (
	CounterpartyBank   = "BANK"
	CounterpartyPlayer = "PLAYER"
)

// TransactionPayload is the payload for transaction.recorded events.
type TransactionPayload struct {
	Direction    string  `json:"direction"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	Counterparty string  `json:"counterparty,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	Note         string  `json:"note,omitempty"`
}

// DonationPayload is the payload for day.friday.donation events.
type DonationPayload struct {
	Amount float64 `json:"amount"`
}

// GoldTradePayload is the payload for day.saturday.gold_trade events.
type GoldTradePayload struct {
	Side      string  `json:"side"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}

// TurnActionPayload is the payload for turn.action.used events.
type TurnActionPayload struct {
	Used int `json:"used"`
}

// TurnEndedPayload is the payload for turn.ended events.
type TurnEndedPayload struct {
	Turn int `json:"turn,omitempty"`
}

// NeedPurchasePayload is the payload for need.*.purchased events.
type NeedPurchasePayload struct {
	Item   string  `json:"item,omitempty"`
	Amount float64 `json:"amount"`
}

// IngredientPayload is the payload for ingredient.purchased events.
type IngredientPayload struct {
	CardType string  `json:"card_type"`
	Qty      int     `json:"qty"`
	Amount   float64 `json:"amount"`
}

// OrderPayload is the payload for order.claimed events.
type OrderPayload struct {
	OrderID     string   `json:"order_id,omitempty"`
	Income      float64  `json:"income"`
	Ingredients []string `json:"ingredients"`
}

// RiskLifePayload is the payload for risk.life.drawn events.
type RiskLifePayload struct {
	Card      string  `json:"card,omitempty"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
}

// SavingDepositPayload is the payload for saving.deposit.* events.
type SavingDepositPayload struct {
	GoalID string  `json:"goal_id"`
	Amount float64 `json:"amount"`
}

// SavingGoalAchievedPayload is the payload for saving.goal.achieved events.
type SavingGoalAchievedPayload struct {
	GoalID string  `json:"goal_id"`
	Cost   float64 `json:"cost"`
}

// LoanTakenPayload is the payload for loan.syariah.taken events.
type LoanTakenPayload struct {
	LoanID    string  `json:"loan_id"`
	Principal float64 `json:"principal"`
}

// LoanRepaidPayload is the payload for loan.syariah.repaid events.
type LoanRepaidPayload struct {
	LoanID string  `json:"loan_id"`
	Amount float64 `json:"amount"`
}

// MissionPayload is the payload for mission.assigned events.
type MissionPayload struct {
	MissionID string `json:"mission_id"`
}

// TieBreakerPayload is the payload for tie_breaker.assigned events.
type TieBreakerPayload struct {
	Label string `json:"label,omitempty"`
}

// RankAwardedPayload is the payload for rank.awarded events.
type RankAwardedPayload struct {
	Rank int `json:"rank"`
}

// InsurancePayload is the payload for insurance.premium.paid events.
type InsurancePayload struct {
	Premium float64 `json:"premium"`
}

// FreelancePayload is the payload for work.freelance.completed events.
type FreelancePayload struct {
	Qty int `json:"qty,omitempty"`
}

// DecodePayload unmarshals an event payload into its typed schema.
// Type mismatches are reported as validation errors with a payload field path.
func DecodePayload(raw []byte, target any) *apperrors.Error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			return apperrors.WithFields(apperrors.CodeValidation,
				fmt.Sprintf("payload field %s has wrong kind", typeErr.Field),
				"payload."+typeErr.Field)
		}
		return apperrors.WithFields(apperrors.CodeValidation, "payload is not valid JSON", "payload")
	}
	return nil
}
