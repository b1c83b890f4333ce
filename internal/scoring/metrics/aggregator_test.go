package metrics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/ruleset"
)

func metricEvent(playerID string, day int, action event.ActionType, payload string) event.Event {
	return event.Event{
		SessionID:   "session-1",
		PlayerID:    playerID,
		DayIndex:    day,
		ActionType:  action,
		PayloadJSON: []byte(payload),
	}
}

func findSnapshot(t *testing.T, snapshots []Snapshot, playerID, name string) Snapshot {
	t.Helper()
	for _, snap := range snapshots {
		if snap.PlayerID == playerID && snap.Name == name {
			return snap
		}
	}
	t.Fatalf("no snapshot for player %q name %q", playerID, name)
	return Snapshot{}
}

func TestComputeSessionTotals(t *testing.T) {
	in := Input{
		SessionID:        "session-1",
		RulesetVersionID: "v1",
		Config:           ruleset.Config{Mode: domain.ModePemula, PrimaryNeedMaxPerDay: 2},
		Projections: []projection.Entry{
			{PlayerID: "p1", Direction: event.DirectionIn, Amount: 30},
			{PlayerID: "p1", Direction: event.DirectionOut, Amount: 10},
			{PlayerID: "p2", Direction: event.DirectionOut, Amount: 5, Category: projection.CategoryDonation},
		},
		ViolationCount: 3,
		ComputedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	snapshots, err := Aggregator{}.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if got := findSnapshot(t, snapshots, "", MetricSessionCashIn).Value; got != 30 {
		t.Fatalf("session cash in = %v, want 30", got)
	}
	if got := findSnapshot(t, snapshots, "", MetricSessionCashOut).Value; got != 15 {
		t.Fatalf("session cash out = %v, want 15", got)
	}
	if got := findSnapshot(t, snapshots, "", MetricSessionCashNet).Value; got != 15 {
		t.Fatalf("session cash net = %v, want 15", got)
	}
	if got := findSnapshot(t, snapshots, "", MetricSessionDonation).Value; got != 5 {
		t.Fatalf("session donation = %v, want 5", got)
	}
	if got := findSnapshot(t, snapshots, "", MetricSessionViolations).Value; got != 3 {
		t.Fatalf("session violations = %v, want 3", got)
	}

	for _, snap := range snapshots {
		if snap.SessionID != "session-1" || snap.RulesetVersionID != "v1" {
			t.Fatalf("snapshot %+v missing session or version stamp", snap)
		}
		if !snap.ComputedAt.Equal(in.ComputedAt) {
			t.Fatalf("ComputedAt = %v, want %v", snap.ComputedAt, in.ComputedAt)
		}
	}
}

func TestComputePerPlayerMetrics(t *testing.T) {
	in := Input{
		SessionID:        "session-1",
		RulesetVersionID: "v1",
		Config:           ruleset.Config{Mode: domain.ModeMahir, PrimaryNeedMaxPerDay: 2},
		Events: []event.Event{
			metricEvent("p1", 1, event.ActionSaturdayGoldTrade, `{"side": "BUY", "qty": 3, "unit_price": 5, "amount": 15}`),
			metricEvent("p1", 1, event.ActionSaturdayGoldTrade, `{"side": "SELL", "qty": 1, "unit_price": 5, "amount": 5}`),
			metricEvent("p1", 1, event.ActionIngredientPurchased, `{"card_type": "flour", "qty": 2, "amount": 4}`),
			metricEvent("p1", 1, event.ActionOrderClaimed, `{"order_id": "o-1", "income": 8, "ingredients": ["flour"]}`),
			metricEvent("p1", 1, event.ActionTurnActionUsed, `{"used": 2}`),
			metricEvent("p1", 2, event.ActionTurnActionUsed, `{"used": 1}`),
		},
		ComputedAt: time.Now(),
	}

	snapshots, err := Aggregator{}.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if got := findSnapshot(t, snapshots, "p1", MetricPlayerGoldNetQty).Value; got != 2 {
		t.Fatalf("gold net qty = %v, want 2", got)
	}
	if got := findSnapshot(t, snapshots, "p1", MetricPlayerOrders).Value; got != 1 {
		t.Fatalf("orders completed = %v, want 1", got)
	}
	if got := findSnapshot(t, snapshots, "p1", MetricPlayerInventory).Value; got != 1 {
		t.Fatalf("inventory total = %v, want 1 (2 bought, 1 consumed)", got)
	}
	if got := findSnapshot(t, snapshots, "p1", MetricPlayerActionsUsed).Value; got != 3 {
		t.Fatalf("actions used = %v, want 3", got)
	}
}

func TestComputeComplianceRate(t *testing.T) {
	cfg := ruleset.Config{
		Mode:                       domain.ModePemula,
		PrimaryNeedMaxPerDay:       1,
		RequirePrimaryBeforeOthers: true,
	}
	in := Input{
		SessionID:        "session-1",
		RulesetVersionID: "v1",
		Config:           cfg,
		Events: []event.Event{
			// Day 1: compliant. One primary, then a secondary.
			metricEvent("p1", 1, event.ActionPrimaryNeedPurchased, `{"amount": 3}`),
			metricEvent("p1", 1, event.ActionSecondaryNeedPurchased, `{"amount": 2}`),
			// Day 2: secondary before any primary breaks the ordering rule.
			metricEvent("p1", 2, event.ActionSecondaryNeedPurchased, `{"amount": 2}`),
			metricEvent("p1", 2, event.ActionPrimaryNeedPurchased, `{"amount": 3}`),
		},
		ComputedAt: time.Now(),
	}

	snapshots, err := Aggregator{}.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	compliance := findSnapshot(t, snapshots, "p1", MetricPlayerCompliance)
	if compliance.Value != 0.5 {
		t.Fatalf("compliance rate = %v, want 0.5 (1 of 2 days)", compliance.Value)
	}

	var detail struct {
		EvaluatedDays int `json:"evaluated_days"`
		CompliantDays int `json:"compliant_days"`
	}
	if err := json.Unmarshal(compliance.ValueJSON, &detail); err != nil {
		t.Fatalf("unmarshal compliance detail: %v", err)
	}
	if detail.EvaluatedDays != 2 || detail.CompliantDays != 1 {
		t.Fatalf("detail = %+v, want 2 evaluated / 1 compliant", detail)
	}
}

func TestComputeComplianceRateCapBreach(t *testing.T) {
	cfg := ruleset.Config{Mode: domain.ModePemula, PrimaryNeedMaxPerDay: 1}
	in := Input{
		SessionID: "session-1",
		Config:    cfg,
		Events: []event.Event{
			metricEvent("p1", 1, event.ActionPrimaryNeedPurchased, `{"amount": 3}`),
			metricEvent("p1", 1, event.ActionPrimaryNeedPurchased, `{"amount": 3}`),
		},
		ComputedAt: time.Now(),
	}

	snapshots, err := Aggregator{}.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if got := findSnapshot(t, snapshots, "p1", MetricPlayerCompliance).Value; got != 0 {
		t.Fatalf("compliance rate = %v, want 0 after cap breach", got)
	}
}

func TestComputeNoPlayers(t *testing.T) {
	snapshots, err := Aggregator{}.Compute(context.Background(), Input{
		SessionID:  "session-1",
		ComputedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(snapshots) != 5 {
		t.Fatalf("len(snapshots) = %d, want the 5 session metrics only", len(snapshots))
	}
}

func TestComputePlayersSorted(t *testing.T) {
	in := Input{
		SessionID: "session-1",
		Events: []event.Event{
			metricEvent("p2", 1, event.ActionTurnActionUsed, `{"used": 1}`),
			metricEvent("p1", 1, event.ActionTurnActionUsed, `{"used": 1}`),
		},
		ComputedAt: time.Now(),
	}

	snapshots, err := Aggregator{}.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	var order []string
	for _, snap := range snapshots {
		if snap.PlayerID != "" {
			if len(order) == 0 || order[len(order)-1] != snap.PlayerID {
				order = append(order, snap.PlayerID)
			}
		}
	}
	if len(order) != 2 || order[0] != "p1" || order[1] != "p2" {
		t.Fatalf("player order = %v, want [p1 p2]", order)
	}
}
