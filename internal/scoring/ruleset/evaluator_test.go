package ruleset

import (
	"testing"

	"github.com/dompetkecil/scoring/internal/scoring/domain"
)

const validMahirConfig = `{
	"mode": "MAHIR",
	"actions_per_turn": 3,
	"starting_cash": 100,
	"cash_min": 0,
	"constraints": {
		"max_ingredient_total": 10,
		"max_same_ingredient": 4,
		"primary_need_max_per_day": 2,
		"require_primary_before_others": true
	},
	"weekday": {
		"friday_donation_enabled": true,
		"saturday_gold_trade_enabled": true,
		"donation_min": 1,
		"donation_max": 10,
		"gold_buy_enabled": true,
		"gold_sell_enabled": true
	},
	"features": {
		"loan_enabled": true,
		"insurance_enabled": true,
		"saving_goal_enabled": true
	},
	"income": {
		"freelance_income": 5
	},
	"scoring": {
		"rank_points": [
			{"rank": 1, "points": 30},
			{"rank": 2, "points": 20}
		]
	}
}`

func TestEvaluateValidConfig(t *testing.T) {
	cfg, errs := Evaluate([]byte(validMahirConfig))
	if len(errs) != 0 {
		t.Fatalf("Evaluate() errors = %v, want none", errs)
	}
	if cfg.Mode != domain.ModeMahir {
		t.Fatalf("Mode = %q, want MAHIR", cfg.Mode)
	}
	if cfg.ActionsPerTurn != 3 {
		t.Fatalf("ActionsPerTurn = %d, want 3", cfg.ActionsPerTurn)
	}
	if cfg.StartingCash != 100 {
		t.Fatalf("StartingCash = %d, want 100", cfg.StartingCash)
	}
	if !cfg.RequirePrimaryBeforeOthers {
		t.Fatalf("RequirePrimaryBeforeOthers = false, want true")
	}
	if cfg.FreelanceIncome != 5 {
		t.Fatalf("FreelanceIncome = %d, want 5", cfg.FreelanceIncome)
	}
	if got := cfg.RankPoints[1]; got != 30 {
		t.Fatalf("RankPoints[1] = %d, want 30", got)
	}
	if cfg.QtyPoints != nil {
		t.Fatalf("QtyPoints = %v, want nil", cfg.QtyPoints)
	}
}

func TestEvaluateDefaultsFreelanceIncome(t *testing.T) {
	cfg, errs := Evaluate([]byte(`{
		"mode": "PEMULA",
		"actions_per_turn": 2,
		"starting_cash": 50,
		"cash_min": 0,
		"constraints": {
			"max_ingredient_total": 5,
			"max_same_ingredient": 2,
			"primary_need_max_per_day": 1,
			"require_primary_before_others": false
		},
		"weekday": {
			"friday_donation_enabled": false,
			"saturday_gold_trade_enabled": false,
			"donation_min": 1,
			"donation_max": 5,
			"gold_buy_enabled": false,
			"gold_sell_enabled": false
		},
		"features": {
			"loan_enabled": false,
			"insurance_enabled": false,
			"saving_goal_enabled": false
		}
	}`))
	if len(errs) != 0 {
		t.Fatalf("Evaluate() errors = %v, want none", errs)
	}
	if cfg.FreelanceIncome != DefaultFreelanceIncome {
		t.Fatalf("FreelanceIncome = %d, want default %d", cfg.FreelanceIncome, DefaultFreelanceIncome)
	}
}

func TestEvaluateMaxSameExceedsTotal(t *testing.T) {
	_, errs := Evaluate([]byte(`{
		"mode": "PEMULA",
		"actions_per_turn": 2,
		"starting_cash": 50,
		"cash_min": 0,
		"constraints": {
			"max_ingredient_total": 3,
			"max_same_ingredient": 5,
			"primary_need_max_per_day": 1,
			"require_primary_before_others": false
		},
		"weekday": {
			"friday_donation_enabled": false,
			"saturday_gold_trade_enabled": false,
			"donation_min": 1,
			"donation_max": 5,
			"gold_buy_enabled": false,
			"gold_sell_enabled": false
		},
		"features": {
			"loan_enabled": false,
			"insurance_enabled": false,
			"saving_goal_enabled": false
		}
	}`))
	if len(errs) == 0 {
		t.Fatal("Evaluate() returned no errors, want cross-field failure")
	}
	found := false
	for _, fe := range errs {
		if fe.Path == "config.constraints.max_same_ingredient" {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want one at config.constraints.max_same_ingredient", errs)
	}
}

func TestEvaluatePemulaForbidsAdvancedFeatures(t *testing.T) {
	_, errs := Evaluate([]byte(`{
		"mode": "PEMULA",
		"actions_per_turn": 2,
		"starting_cash": 50,
		"cash_min": 0,
		"constraints": {
			"max_ingredient_total": 5,
			"max_same_ingredient": 2,
			"primary_need_max_per_day": 1,
			"require_primary_before_others": false
		},
		"weekday": {
			"friday_donation_enabled": false,
			"saturday_gold_trade_enabled": false,
			"donation_min": 1,
			"donation_max": 5,
			"gold_buy_enabled": false,
			"gold_sell_enabled": false
		},
		"features": {
			"loan_enabled": true,
			"insurance_enabled": true,
			"saving_goal_enabled": true
		}
	}`))
	paths := make(map[string]bool)
	for _, fe := range errs {
		paths[fe.Path] = true
	}
	for _, want := range []string{
		"config.features.loan_enabled",
		"config.features.insurance_enabled",
		"config.features.saving_goal_enabled",
	} {
		if !paths[want] {
			t.Fatalf("errors = %v, want one at %s", errs, want)
		}
	}
}

func TestEvaluateCollectsAllErrors(t *testing.T) {
	_, errs := Evaluate([]byte(`{
		"mode": "HARD",
		"actions_per_turn": 99,
		"starting_cash": -5,
		"cash_min": 0,
		"constraints": {
			"max_ingredient_total": 5,
			"max_same_ingredient": 2,
			"primary_need_max_per_day": 1,
			"require_primary_before_others": false
		},
		"weekday": {
			"friday_donation_enabled": false,
			"saturday_gold_trade_enabled": false,
			"donation_min": 0,
			"donation_max": 5,
			"gold_buy_enabled": false,
			"gold_sell_enabled": false
		},
		"features": {
			"loan_enabled": false,
			"insurance_enabled": false,
			"saving_goal_enabled": false
		}
	}`))
	if len(errs) < 4 {
		t.Fatalf("Evaluate() errors = %v, want at least 4 collected failures", errs)
	}
}

func TestEvaluateMissingSections(t *testing.T) {
	_, errs := Evaluate([]byte(`{"mode": "MAHIR"}`))
	if len(errs) == 0 {
		t.Fatal("Evaluate() returned no errors for a mostly empty document")
	}
}

func TestEvaluateStrictReportsFieldPaths(t *testing.T) {
	_, err := EvaluateStrict([]byte(`{"mode": 12}`))
	if err == nil {
		t.Fatal("EvaluateStrict() error = nil, want validation failure")
	}
}

func TestCacheResolvesOnce(t *testing.T) {
	cache, err := NewCache(4)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	cfg, err := cache.Resolve("v1", []byte(validMahirConfig))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Mode != domain.ModeMahir {
		t.Fatalf("Mode = %q, want MAHIR", cfg.Mode)
	}

	// A cached version resolves even with a broken raw document.
	cached, err := cache.Resolve("v1", []byte("not json"))
	if err != nil {
		t.Fatalf("Resolve() cached error = %v", err)
	}
	if cached.ActionsPerTurn != cfg.ActionsPerTurn {
		t.Fatalf("cached ActionsPerTurn = %d, want %d", cached.ActionsPerTurn, cfg.ActionsPerTurn)
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	cache, err := NewCache(4)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if _, err := cache.Resolve("bad", []byte("not json")); err == nil {
		t.Fatal("Resolve() error = nil, want parse failure")
	}
	if _, err := cache.Resolve("bad", []byte("not json")); err == nil {
		t.Fatal("Resolve() error = nil on retry, want parse failure again")
	}
}
