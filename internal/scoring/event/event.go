// Package event defines the immutable game event journal entries.
package event

import (
	"strings"
	"time"
)

// ActionType identifies the kind of game action an event records.
type ActionType string

// Cash movement actions.
const (
	// ActionTransactionRecorded records a free-form cash transaction.
	ActionTransactionRecorded ActionType = "transaction.recorded"
	// ActionFridayDonation records a Friday charity donation.
	ActionFridayDonation ActionType = "day.friday.donation"
	// ActionSaturdayGoldTrade records a Saturday gold buy or sell.
	ActionSaturdayGoldTrade ActionType = "day.saturday.gold_trade"
)

// Turn bookkeeping actions.
const (
	// ActionTurnActionUsed records action tokens spent within a turn.
	ActionTurnActionUsed ActionType = "turn.action.used"
	// ActionTurnEnded records the end of a turn.
	ActionTurnEnded ActionType = "turn.ended"
)

// Need purchases, tiered by priority.
const (
	ActionPrimaryNeedPurchased   ActionType = "need.primary.purchased"
	ActionSecondaryNeedPurchased ActionType = "need.secondary.purchased"
	ActionTertiaryNeedPurchased  ActionType = "need.tertiary.purchased"
)

// Production chain actions.
const (
	// ActionIngredientPurchased records an ingredient card purchase.
	ActionIngredientPurchased ActionType = "ingredient.purchased"
	// ActionOrderClaimed records a completed customer order.
	ActionOrderClaimed ActionType = "order.claimed"
	// ActionRiskLifeDrawn records a life-risk card draw (MAHIR only).
	ActionRiskLifeDrawn ActionType = "risk.life.drawn"
)

// Saving goal actions.
const (
	ActionSavingDepositAdded     ActionType = "saving.deposit.added"
	ActionSavingDepositWithdrawn ActionType = "saving.deposit.withdrawn"
	ActionSavingGoalAchieved     ActionType = "saving.goal.achieved"
)

// Syariah loan actions.
const (
	ActionLoanTaken  ActionType = "loan.syariah.taken"
	ActionLoanRepaid ActionType = "loan.syariah.repaid"
)

// Assignment and award actions.
const (
	ActionMissionAssigned    ActionType = "mission.assigned"
	ActionTieBreakerAssigned ActionType = "tie_breaker.assigned"
	ActionRankAwarded        ActionType = "rank.awarded"
)

// Income and protection actions.
const (
	ActionInsurancePremiumPaid   ActionType = "insurance.premium.paid"
	ActionFreelanceWorkCompleted ActionType = "work.freelance.completed"
)

// ActorType identifies who submitted an event.
type ActorType string

const (
	// ActorTypePlayer indicates a player action.
	ActorTypePlayer ActorType = "PLAYER"
	// ActorTypeSystem indicates a system-generated event.
	ActorTypeSystem ActorType = "SYSTEM"
)

// IsValid reports whether the actor type is a known value.
func (a ActorType) IsValid() bool {
	return a == ActorTypePlayer || a == ActorTypeSystem
}

// Weekday identifies the in-game weekday an event occurred on.
type Weekday string

const (
	WeekdayMonday    Weekday = "MON"
	WeekdayTuesday   Weekday = "TUE"
	WeekdayWednesday Weekday = "WED"
	WeekdayThursday  Weekday = "THU"
	WeekdayFriday    Weekday = "FRI"
	WeekdaySaturday  Weekday = "SAT"
	WeekdaySunday    Weekday = "SUN"
)

// IsValid reports whether the weekday is a known value.
func (w Weekday) IsValid() bool {
	switch w {
	case WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday,
		WeekdayFriday, WeekdaySaturday, WeekdaySunday:
		return true
	}
	return false
}

// Event represents an immutable entry in a session's event journal.
type Event struct {
	// EventID is the client-supplied idempotency key, unique per session.
	EventID string
	// SessionID is the session this event belongs to.
	SessionID string
	// PlayerID is the acting player (empty for system events).
	PlayerID string
	// ActorType identifies who submitted the event.
	ActorType ActorType
	// Timestamp is when the action occurred.
	Timestamp time.Time
	// DayIndex is the in-game day the action occurred on.
	DayIndex int
	// Weekday is the in-game weekday the action occurred on.
	Weekday Weekday
	// TurnNumber is the in-game turn the action occurred on.
	TurnNumber int
	// Sequence is the session-scoped gapless sequence number, starting at 0.
	Sequence uint64
	// ActionType identifies the kind of action.
	ActionType ActionType
	// RulesetVersionID is the ruleset version active at acceptance time.
	RulesetVersionID string
	// PayloadJSON holds action-specific data as JSON.
	PayloadJSON []byte
	// ReceivedAt is when the backend accepted the event.
	ReceivedAt time.Time
}

// IsValid reports whether the action type is usable.
func (t ActionType) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the action type (e.g. "need", "turn").
func (t ActionType) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
