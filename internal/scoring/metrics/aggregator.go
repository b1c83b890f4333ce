// Package metrics recomputes session and per-player summary metrics from
// full event and projection history and emits append-only snapshots.
package metrics

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
	"github.com/dompetkecil/scoring/internal/scoring/ruleset"
)

// Metric names. Session-scoped snapshots carry an empty player id.
const (
	MetricSessionCashIn     = "session.cash.in_total"
	MetricSessionCashOut    = "session.cash.out_total"
	MetricSessionCashNet    = "session.cash.net"
	MetricSessionDonation   = "session.donation.total"
	MetricSessionViolations = "session.violation.count"
	MetricPlayerCashIn      = "player.cash.in_total"
	MetricPlayerCashOut     = "player.cash.out_total"
	MetricPlayerCashNet     = "player.cash.net"
	MetricPlayerDonation    = "player.donation.total"
	MetricPlayerGoldNetQty  = "player.gold.net_qty"
	MetricPlayerOrders      = "player.orders.completed"
	MetricPlayerInventory   = "player.inventory.total"
	MetricPlayerActionsUsed = "player.actions.used"
	MetricPlayerCompliance  = "player.primary_need.compliance_rate"
)

// Snapshot is one computed metric value. Snapshots are never overwritten;
// recomputation appends new rows and the latest computed_at wins.
type Snapshot struct {
	SessionID        string
	PlayerID         string
	RulesetVersionID string
	Name             string
	Value            float64
	ValueJSON        []byte
	ComputedAt       time.Time
}

// Input is the full history the aggregator recomputes from.
type Input struct {
	SessionID        string
	RulesetVersionID string
	Config           ruleset.Config
	Events           []event.Event
	Projections      []projection.Entry
	ViolationCount   int
	ComputedAt       time.Time
}

// Aggregator derives metric snapshots from session history.
type Aggregator struct{}

// Compute recomputes session totals and per-player metrics. Per-player
// work fans out across goroutines; the returned order is session metrics
// first, then players sorted by id.
func (a Aggregator) Compute(ctx context.Context, in Input) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots := a.sessionSnapshots(in)

	players := playerIDs(in)
	perPlayer := make([][]Snapshot, len(players))

	g, _ := errgroup.WithContext(ctx)
	for i, playerID := range players {
		i, playerID := i, playerID
		g.Go(func() error {
			perPlayer[i] = a.playerSnapshots(in, playerID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, batch := range perPlayer {
		snapshots = append(snapshots, batch...)
	}
	return snapshots, nil
}

func (a Aggregator) sessionSnapshots(in Input) []Snapshot {
	var cashIn, cashOut, donation int64
	for _, entry := range in.Projections {
		switch entry.Direction {
		case event.DirectionIn:
			cashIn += entry.Amount
		case event.DirectionOut:
			cashOut += entry.Amount
		}
		if entry.Category == projection.CategoryDonation {
			donation += entry.Amount
		}
	}

	return []Snapshot{
		a.snapshot(in, "", MetricSessionCashIn, float64(cashIn)),
		a.snapshot(in, "", MetricSessionCashOut, float64(cashOut)),
		a.snapshot(in, "", MetricSessionCashNet, float64(cashIn-cashOut)),
		a.snapshot(in, "", MetricSessionDonation, float64(donation)),
		a.snapshot(in, "", MetricSessionViolations, float64(in.ViolationCount)),
	}
}

func (a Aggregator) playerSnapshots(in Input, playerID string) []Snapshot {
	var cashIn, cashOut, donation int64
	for _, entry := range in.Projections {
		if entry.PlayerID != playerID {
			continue
		}
		switch entry.Direction {
		case event.DirectionIn:
			cashIn += entry.Amount
		case event.DirectionOut:
			cashOut += entry.Amount
		}
		if entry.Category == projection.CategoryDonation {
			donation += entry.Amount
		}
	}

	inventory := 0
	for _, qty := range ingredientInventory(in.Events, playerID) {
		inventory += qty
	}

	snapshots := []Snapshot{
		a.snapshot(in, playerID, MetricPlayerCashIn, float64(cashIn)),
		a.snapshot(in, playerID, MetricPlayerCashOut, float64(cashOut)),
		a.snapshot(in, playerID, MetricPlayerCashNet, float64(cashIn-cashOut)),
		a.snapshot(in, playerID, MetricPlayerDonation, float64(donation)),
		a.snapshot(in, playerID, MetricPlayerGoldNetQty, float64(goldNetQty(in.Events, playerID))),
		a.snapshot(in, playerID, MetricPlayerOrders, float64(countActions(in.Events, playerID, event.ActionOrderClaimed))),
		a.snapshot(in, playerID, MetricPlayerInventory, float64(inventory)),
		a.snapshot(in, playerID, MetricPlayerActionsUsed, float64(actionsUsedTotal(in.Events, playerID))),
	}

	rate, detail := complianceRate(in.Events, playerID, in.Config)
	compliance := a.snapshot(in, playerID, MetricPlayerCompliance, rate)
	if raw, err := json.Marshal(detail); err == nil {
		compliance.ValueJSON = raw
	}
	return append(snapshots, compliance)
}

func (a Aggregator) snapshot(in Input, playerID, name string, value float64) Snapshot {
	return Snapshot{
		SessionID:        in.SessionID,
		PlayerID:         playerID,
		RulesetVersionID: in.RulesetVersionID,
		Name:             name,
		Value:            value,
		ComputedAt:       in.ComputedAt,
	}
}

// complianceDetail accompanies the compliance rate snapshot as its JSON value.
type complianceDetail struct {
	EvaluatedDays int `json:"evaluated_days"`
	CompliantDays int `json:"compliant_days"`
}

// complianceRate groups a player's events by day index. A day is compliant
// when the primary-need count stays within the daily cap and, if the
// ordering constraint is on, no secondary or tertiary purchase precedes
// the first primary purchase that day. Days without any events for the
// player are not evaluated; the rate is 0 when no days qualify.
func complianceRate(events []event.Event, playerID string, cfg ruleset.Config) (float64, complianceDetail) {
	type dayState struct {
		primaryCount  int
		orderedBroken bool
	}
	days := make(map[int]*dayState)

	for _, evt := range events {
		if evt.PlayerID != playerID {
			continue
		}
		state, ok := days[evt.DayIndex]
		if !ok {
			state = &dayState{}
			days[evt.DayIndex] = state
		}
		switch evt.ActionType {
		case event.ActionPrimaryNeedPurchased:
			state.primaryCount++
		case event.ActionSecondaryNeedPurchased, event.ActionTertiaryNeedPurchased:
			if cfg.RequirePrimaryBeforeOthers && state.primaryCount == 0 {
				state.orderedBroken = true
			}
		}
	}

	detail := complianceDetail{EvaluatedDays: len(days)}
	for _, state := range days {
		if state.primaryCount <= cfg.PrimaryNeedMaxPerDay && !state.orderedBroken {
			detail.CompliantDays++
		}
	}
	if detail.EvaluatedDays == 0 {
		return 0, detail
	}
	return float64(detail.CompliantDays) / float64(detail.EvaluatedDays), detail
}

// playerIDs collects the distinct players seen in events or projections,
// sorted for stable output.
func playerIDs(in Input) []string {
	seen := make(map[string]struct{})
	for _, evt := range in.Events {
		if evt.PlayerID != "" {
			seen[evt.PlayerID] = struct{}{}
		}
	}
	for _, entry := range in.Projections {
		if entry.PlayerID != "" {
			seen[entry.PlayerID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func countActions(events []event.Event, playerID string, action event.ActionType) int {
	count := 0
	for _, evt := range events {
		if evt.ActionType == action && evt.PlayerID == playerID {
			count++
		}
	}
	return count
}

func actionsUsedTotal(events []event.Event, playerID string) int {
	used := 0
	for _, evt := range events {
		if evt.ActionType != event.ActionTurnActionUsed || evt.PlayerID != playerID {
			continue
		}
		var payload event.TurnActionPayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
			continue
		}
		used += payload.Used
	}
	return used
}

func goldNetQty(events []event.Event, playerID string) int {
	net := 0
	for _, evt := range events {
		if evt.ActionType != event.ActionSaturdayGoldTrade || evt.PlayerID != playerID {
			continue
		}
		var payload event.GoldTradePayload
		if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
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

func ingredientInventory(events []event.Event, playerID string) map[string]int {
	inventory := make(map[string]int)
	for _, evt := range events {
		if evt.PlayerID != playerID {
			continue
		}
		switch evt.ActionType {
		case event.ActionIngredientPurchased:
			var payload event.IngredientPayload
			if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
				continue
			}
			inventory[payload.CardType] += payload.Qty

		case event.ActionOrderClaimed:
			var payload event.OrderPayload
			if err := event.DecodePayload(evt.PayloadJSON, &payload); err != nil {
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
