package ruleset

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
)

// FieldError reports a config document problem at a dot-path.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Evaluate parses a raw config document into a typed Config.
//
// Every required field undergoes strict presence and kind checking; all
// failures are collected and returned together, ordered by document
// position. Cross-field checks run after the leaf checks. A non-empty
// error list means parsing aborted and the Config must not be used.
func Evaluate(raw []byte) (Config, []FieldError) {
	var errs []FieldError
	var cfg Config

	root, ok := decodeObject(raw, "config", &errs)
	if !ok {
		return Config{}, errs
	}

	mode, modeOK := stringField(root, "config", "mode", true, &errs)
	actionsPerTurn, actionsOK := intField(root, "config", "actions_per_turn", true, &errs)
	startingCash, startingOK := int64Field(root, "config", "starting_cash", true, &errs)
	cashMin, cashMinOK := int64Field(root, "config", "cash_min", true, &errs)

	constraints, constraintsOK := objectField(root, "config", "constraints", &errs)
	var maxTotal, maxSame, primaryMax int
	var maxTotalOK, maxSameOK, primaryMaxOK bool
	var primaryFirst bool
	if constraintsOK {
		maxTotal, maxTotalOK = intField(constraints, "config.constraints", "max_ingredient_total", true, &errs)
		maxSame, maxSameOK = intField(constraints, "config.constraints", "max_same_ingredient", true, &errs)
		primaryMax, primaryMaxOK = intField(constraints, "config.constraints", "primary_need_max_per_day", true, &errs)
		primaryFirst, _ = boolField(constraints, "config.constraints", "require_primary_before_others", true, &errs)
	}

	weekday, weekdayOK := objectField(root, "config", "weekday", &errs)
	var fridayEnabled, saturdayEnabled, goldBuy, goldSell bool
	var donationMin, donationMax int64
	var donationMinOK, donationMaxOK bool
	if weekdayOK {
		fridayEnabled, _ = boolField(weekday, "config.weekday", "friday_donation_enabled", true, &errs)
		saturdayEnabled, _ = boolField(weekday, "config.weekday", "saturday_gold_trade_enabled", true, &errs)
		donationMin, donationMinOK = int64Field(weekday, "config.weekday", "donation_min", true, &errs)
		donationMax, donationMaxOK = int64Field(weekday, "config.weekday", "donation_max", true, &errs)
		goldBuy, _ = boolField(weekday, "config.weekday", "gold_buy_enabled", true, &errs)
		goldSell, _ = boolField(weekday, "config.weekday", "gold_sell_enabled", true, &errs)
	}

	features, featuresOK := objectField(root, "config", "features", &errs)
	var loanEnabled, insuranceEnabled, savingEnabled bool
	var loanOK, insuranceOK, savingOK bool
	if featuresOK {
		loanEnabled, loanOK = boolField(features, "config.features", "loan_enabled", true, &errs)
		insuranceEnabled, insuranceOK = boolField(features, "config.features", "insurance_enabled", true, &errs)
		savingEnabled, savingOK = boolField(features, "config.features", "saving_goal_enabled", true, &errs)
	}

	freelanceIncome := int64(DefaultFreelanceIncome)
	freelanceOK := true
	if incomeRaw, present := root["income"]; present {
		income, incomeOK := decodeObject(incomeRaw, "config.income", &errs)
		if incomeOK {
			if _, present := income["freelance_income"]; present {
				freelanceIncome, freelanceOK = int64Field(income, "config.income", "freelance_income", true, &errs)
			}
		} else {
			freelanceOK = false
		}
	}

	var rankPoints, qtyPoints map[int]int64
	if scoringRaw, present := root["scoring"]; present {
		scoring, scoringOK := decodeObject(scoringRaw, "config.scoring", &errs)
		if scoringOK {
			rankPoints = scoringTable(scoring, "config.scoring", "rank_points", "rank", &errs)
			qtyPoints = scoringTable(scoring, "config.scoring", "qty_points", "qty", &errs)
		}
	}

	// Cross-field checks, evaluated only over leaves that parsed cleanly.
	if modeOK && !domain.Mode(mode).IsValid() {
		errs = append(errs, FieldError{Path: "config.mode", Message: "mode must be PEMULA or MAHIR"})
		modeOK = false
	}
	if actionsOK && (actionsPerTurn < 1 || actionsPerTurn > 10) {
		errs = append(errs, FieldError{Path: "config.actions_per_turn", Message: "actions_per_turn must be between 1 and 10"})
	}
	if startingOK && startingCash < 0 {
		errs = append(errs, FieldError{Path: "config.starting_cash", Message: "starting_cash must not be negative"})
	}
	if cashMinOK && cashMin < 0 {
		errs = append(errs, FieldError{Path: "config.cash_min", Message: "cash_min must not be negative"})
	}
	if maxTotalOK && (maxTotal < 0 || maxTotal > 50) {
		errs = append(errs, FieldError{Path: "config.constraints.max_ingredient_total", Message: "max_ingredient_total must be between 0 and 50"})
	}
	if maxSameOK && (maxSame < 0 || maxSame > 50) {
		errs = append(errs, FieldError{Path: "config.constraints.max_same_ingredient", Message: "max_same_ingredient must be between 0 and 50"})
	} else if maxSameOK && maxTotalOK && maxSame > maxTotal {
		errs = append(errs, FieldError{Path: "config.constraints.max_same_ingredient", Message: "max_same_ingredient must not exceed max_ingredient_total"})
	}
	if primaryMaxOK && (primaryMax < 0 || primaryMax > 10) {
		errs = append(errs, FieldError{Path: "config.constraints.primary_need_max_per_day", Message: "primary_need_max_per_day must be between 0 and 10"})
	}
	if donationMinOK && donationMin < 1 {
		errs = append(errs, FieldError{Path: "config.weekday.donation_min", Message: "donation_min must be at least 1"})
	} else if donationMinOK && donationMaxOK && donationMin > donationMax {
		errs = append(errs, FieldError{Path: "config.weekday.donation_max", Message: "donation_max must not be below donation_min"})
	}
	if freelanceOK && freelanceIncome <= 0 {
		errs = append(errs, FieldError{Path: "config.income.freelance_income", Message: "freelance_income must be greater than zero"})
	}
	if modeOK && domain.Mode(mode) == domain.ModePemula {
		if loanOK && loanEnabled {
			errs = append(errs, FieldError{Path: "config.features.loan_enabled", Message: "loan must be disabled in PEMULA mode"})
		}
		if insuranceOK && insuranceEnabled {
			errs = append(errs, FieldError{Path: "config.features.insurance_enabled", Message: "insurance must be disabled in PEMULA mode"})
		}
		if savingOK && savingEnabled {
			errs = append(errs, FieldError{Path: "config.features.saving_goal_enabled", Message: "saving goal must be disabled in PEMULA mode"})
		}
	}

	if len(errs) > 0 {
		return Config{}, errs
	}

	cfg = Config{
		Mode:                       domain.Mode(mode),
		ActionsPerTurn:             actionsPerTurn,
		StartingCash:               startingCash,
		CashMin:                    cashMin,
		MaxIngredientTotal:         maxTotal,
		MaxSameIngredient:          maxSame,
		PrimaryNeedMaxPerDay:       primaryMax,
		RequirePrimaryBeforeOthers: primaryFirst,
		FridayDonationEnabled:      fridayEnabled,
		SaturdayGoldTradeEnabled:   saturdayEnabled,
		DonationMin:                donationMin,
		DonationMax:                donationMax,
		GoldBuyEnabled:             goldBuy,
		GoldSellEnabled:            goldSell,
		LoanEnabled:                loanEnabled,
		InsuranceEnabled:           insuranceEnabled,
		SavingGoalEnabled:          savingEnabled,
		FreelanceIncome:            freelanceIncome,
		RankPoints:                 rankPoints,
		QtyPoints:                  qtyPoints,
	}
	return cfg, nil
}

// EvaluateStrict wraps Evaluate into a single domain error carrying all
// offending field paths.
func EvaluateStrict(raw []byte) (Config, error) {
	cfg, fieldErrs := Evaluate(raw)
	if len(fieldErrs) == 0 {
		return cfg, nil
	}
	paths := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		paths = append(paths, fe.Path)
	}
	return Config{}, apperrors.WithFields(apperrors.CodeValidation,
		fmt.Sprintf("config document is invalid: %s", fieldErrs[0].Message), paths...)
}

func decodeObject(raw []byte, path string, errs *[]FieldError) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be an object"})
		return nil, false
	}
	return obj, true
}

func objectField(obj map[string]json.RawMessage, base, name string, errs *[]FieldError) (map[string]json.RawMessage, bool) {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		*errs = append(*errs, FieldError{Path: path, Message: "is required"})
		return nil, false
	}
	return decodeObject(raw, path, errs)
}

func stringField(obj map[string]json.RawMessage, base, name string, required bool, errs *[]FieldError) (string, bool) {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		if required {
			*errs = append(*errs, FieldError{Path: path, Message: "is required"})
		}
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be a string"})
		return "", false
	}
	return value, true
}

func boolField(obj map[string]json.RawMessage, base, name string, required bool, errs *[]FieldError) (bool, bool) {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		if required {
			*errs = append(*errs, FieldError{Path: path, Message: "is required"})
		}
		return false, false
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be a boolean"})
		return false, false
	}
	return value, true
}

func intField(obj map[string]json.RawMessage, base, name string, required bool, errs *[]FieldError) (int, bool) {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		if required {
			*errs = append(*errs, FieldError{Path: path, Message: "is required"})
		}
		return 0, false
	}
	var value int
	if err := json.Unmarshal(raw, &value); err != nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be an integer"})
		return 0, false
	}
	return value, true
}

func int64Field(obj map[string]json.RawMessage, base, name string, required bool, errs *[]FieldError) (int64, bool) {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		if required {
			*errs = append(*errs, FieldError{Path: path, Message: "is required"})
		}
		return 0, false
	}
	var value int64
	if err := json.Unmarshal(raw, &value); err != nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be an integer"})
		return 0, false
	}
	return value, true
}

// scoringTable parses an optional []{key, points} table into a map keyed by
// the named key field. Keys must be unique and positive; points must not be
// negative.
func scoringTable(obj map[string]json.RawMessage, base, name, keyField string, errs *[]FieldError) map[int]int64 {
	path := base + "." + name
	raw, present := obj[name]
	if !present {
		return nil
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		*errs = append(*errs, FieldError{Path: path, Message: "must be an array of objects"})
		return nil
	}

	table := make(map[int]int64, len(rows))
	for i, row := range rows {
		rowPath := fmt.Sprintf("%s[%d]", path, i)
		key, keyOK := intField(row, rowPath, keyField, true, errs)
		points, pointsOK := int64Field(row, rowPath, "points", true, errs)
		if !keyOK || !pointsOK {
			continue
		}
		if key <= 0 {
			*errs = append(*errs, FieldError{Path: rowPath + "." + keyField, Message: "must be positive"})
			continue
		}
		if points < 0 {
			*errs = append(*errs, FieldError{Path: rowPath + ".points", Message: "must not be negative"})
			continue
		}
		if _, exists := table[key]; exists {
			*errs = append(*errs, FieldError{Path: rowPath + "." + keyField, Message: "must be unique"})
			continue
		}
		table[key] = points
	}
	if len(table) == 0 {
		return nil
	}
	return table
}
