// Package ruleset parses and validates versioned rule configurations.
package ruleset

import "github.com/dompetkecil/scoring/internal/scoring/domain"

// DefaultFreelanceIncome is applied when the income section omits a value.
const DefaultFreelanceIncome = 1

// Config is the typed, cross-validated rule configuration for one
// ruleset version. It is constructed once per version by Evaluate and
// treated as immutable afterwards.
type Config struct {
	Mode domain.Mode

	ActionsPerTurn int
	StartingCash   int64
	CashMin        int64

	MaxIngredientTotal         int
	MaxSameIngredient          int
	PrimaryNeedMaxPerDay       int
	RequirePrimaryBeforeOthers bool

	FridayDonationEnabled    bool
	SaturdayGoldTradeEnabled bool
	DonationMin              int64
	DonationMax              int64
	GoldBuyEnabled           bool
	GoldSellEnabled          bool

	LoanEnabled       bool
	InsuranceEnabled  bool
	SavingGoalEnabled bool

	FreelanceIncome int64

	// RankPoints and QtyPoints are optional scoring tables; nil when absent.
	RankPoints map[int]int64
	QtyPoints  map[int]int64
}

// AdvancedFeaturesAllowed reports whether loan, insurance and saving-goal
// actions may be enabled for this config's mode.
func (c Config) AdvancedFeaturesAllowed() bool {
	return c.Mode == domain.ModeMahir
}
