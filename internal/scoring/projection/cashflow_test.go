package projection

import (
	"testing"
	"time"

	"github.com/dompetkecil/scoring/internal/scoring/event"
)

func testEvent(action event.ActionType, payload string) event.Event {
	return event.Event{
		EventID:     "evt-1",
		SessionID:   "session-1",
		PlayerID:    "player-1",
		ActorType:   event.ActorTypePlayer,
		Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ActionType:  action,
		PayloadJSON: []byte(payload),
	}
}

func TestDeriveOrderClaimed(t *testing.T) {
	entry, ok := Derive(testEvent(event.ActionOrderClaimed,
		`{"order_id": "order-7", "income": 12, "ingredients": ["flour"]}`))
	if !ok {
		t.Fatal("Derive() ok = false, want ledger entry")
	}
	if entry.Direction != event.DirectionIn {
		t.Fatalf("Direction = %q, want IN", entry.Direction)
	}
	if entry.Amount != 12 {
		t.Fatalf("Amount = %d, want 12", entry.Amount)
	}
	if entry.Category != CategoryOrder {
		t.Fatalf("Category = %q, want ORDER", entry.Category)
	}
	if entry.Reference != "order-7" {
		t.Fatalf("Reference = %q, want order-7", entry.Reference)
	}
}

func TestDeriveIngredientPurchase(t *testing.T) {
	entry, ok := Derive(testEvent(event.ActionIngredientPurchased,
		`{"card_type": "flour", "qty": 2, "amount": 6}`))
	if !ok {
		t.Fatal("Derive() ok = false, want ledger entry")
	}
	if entry.Direction != event.DirectionOut {
		t.Fatalf("Direction = %q, want OUT", entry.Direction)
	}
	if entry.Amount != 6 {
		t.Fatalf("Amount = %d, want 6", entry.Amount)
	}
	if entry.Category != CategoryIngredient {
		t.Fatalf("Category = %q, want INGREDIENT", entry.Category)
	}
}

func TestDeriveGoldTradeSides(t *testing.T) {
	buy, ok := Derive(testEvent(event.ActionSaturdayGoldTrade,
		`{"side": "BUY", "qty": 2, "unit_price": 5, "amount": 10}`))
	if !ok || buy.Direction != event.DirectionOut {
		t.Fatalf("BUY entry = %+v ok=%v, want OUT entry", buy, ok)
	}

	sell, ok := Derive(testEvent(event.ActionSaturdayGoldTrade,
		`{"side": "SELL", "qty": 2, "unit_price": 5, "amount": 10}`))
	if !ok || sell.Direction != event.DirectionIn {
		t.Fatalf("SELL entry = %+v ok=%v, want IN entry", sell, ok)
	}
	if sell.Category != CategoryGold {
		t.Fatalf("Category = %q, want GOLD", sell.Category)
	}
}

func TestDeriveLoanCounterparty(t *testing.T) {
	taken, ok := Derive(testEvent(event.ActionLoanTaken,
		`{"loan_id": "loan-1", "principal": 40}`))
	if !ok {
		t.Fatal("Derive() ok = false for loan taken")
	}
	if taken.Direction != event.DirectionIn || taken.Counterparty != event.CounterpartyBank {
		t.Fatalf("loan taken entry = %+v, want IN from BANK", taken)
	}

	repaid, ok := Derive(testEvent(event.ActionLoanRepaid,
		`{"loan_id": "loan-1", "amount": 10}`))
	if !ok {
		t.Fatal("Derive() ok = false for loan repaid")
	}
	if repaid.Direction != event.DirectionOut || repaid.Counterparty != event.CounterpartyBank {
		t.Fatalf("loan repaid entry = %+v, want OUT to BANK", repaid)
	}
}

func TestDeriveNonCashActions(t *testing.T) {
	nonCash := []struct {
		action  event.ActionType
		payload string
	}{
		{event.ActionTurnActionUsed, `{"used": 1}`},
		{event.ActionTurnEnded, `{}`},
		{event.ActionMissionAssigned, `{"mission_id": "m-1"}`},
		{event.ActionTieBreakerAssigned, `{}`},
		{event.ActionRankAwarded, `{"rank": 1}`},
		{event.ActionSavingGoalAchieved, `{"goal_id": "g-1", "cost": 30}`},
	}
	for _, tc := range nonCash {
		if entry, ok := Derive(testEvent(tc.action, tc.payload)); ok {
			t.Fatalf("Derive(%s) = %+v, want no entry", tc.action, entry)
		}
	}
}

func TestDeriveSuppressesNonPositiveAmounts(t *testing.T) {
	if entry, ok := Derive(testEvent(event.ActionFridayDonation, `{"amount": 0}`)); ok {
		t.Fatalf("Derive() = %+v, want suppression for zero amount", entry)
	}
	if entry, ok := Derive(testEvent(event.ActionTransactionRecorded,
		`{"direction": "", "amount": 5, "category": "MISC"}`)); ok {
		t.Fatalf("Derive() = %+v, want suppression for empty direction", entry)
	}
}

func TestDeriveRoundsFractionalAmounts(t *testing.T) {
	entry, ok := Derive(testEvent(event.ActionFridayDonation, `{"amount": 2.6}`))
	if !ok {
		t.Fatal("Derive() ok = false, want entry")
	}
	if entry.Amount != 3 {
		t.Fatalf("Amount = %d, want 3 after rounding", entry.Amount)
	}
}

func TestDeriveWithIncomeMultipliesFreelance(t *testing.T) {
	entry, ok := DeriveWithIncome(testEvent(event.ActionFreelanceWorkCompleted, `{"qty": 3}`), 5)
	if !ok {
		t.Fatal("DeriveWithIncome() ok = false, want entry")
	}
	if entry.Direction != event.DirectionIn {
		t.Fatalf("Direction = %q, want IN", entry.Direction)
	}
	if entry.Amount != 15 {
		t.Fatalf("Amount = %d, want 15 (3 completions x income 5)", entry.Amount)
	}
	if entry.Category != CategoryFreelance {
		t.Fatalf("Category = %q, want FREELANCE", entry.Category)
	}
}
