package service

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/domain"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/storage"
	"github.com/dompetkecil/scoring/internal/scoring/storage/memory"
)

const testConfigJSON = `{
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
	}
}`

type testBench struct {
	svc       *Service
	session   domain.Session
	player    domain.Player
	versionID string
}

// newBench builds a started MAHIR session with one player and an active
// ruleset version on the in-memory store.
func newBench(t *testing.T) *testBench {
	t.Helper()
	ctx := context.Background()

	svc, err := New(memory.NewStore())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	session, err := svc.CreateSession(ctx, domain.ModeMahir)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	player, err := svc.AddPlayer(ctx, session.ID, "Player One")
	if err != nil {
		t.Fatalf("AddPlayer() error = %v", err)
	}

	ruleset, err := svc.CreateRuleset(ctx, "standard")
	if err != nil {
		t.Fatalf("CreateRuleset() error = %v", err)
	}
	version, err := svc.CreateRulesetVersion(ctx, ruleset.ID, []byte(testConfigJSON))
	if err != nil {
		t.Fatalf("CreateRulesetVersion() error = %v", err)
	}
	if _, err := svc.ActivateVersion(ctx, session.ID, version.ID); err != nil {
		t.Fatalf("ActivateVersion() error = %v", err)
	}
	session, err = svc.StartSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	return &testBench{svc: svc, session: session, player: player, versionID: version.ID}
}

func (b *testBench) event(seq uint64, action event.ActionType, payload string) event.Event {
	return event.Event{
		EventID:          fmt.Sprintf("evt-%d", seq),
		SessionID:        b.session.ID,
		PlayerID:         b.player.ID,
		ActorType:        event.ActorTypePlayer,
		DayIndex:         1,
		Weekday:          event.WeekdayMonday,
		TurnNumber:       1,
		Sequence:         seq,
		ActionType:       action,
		RulesetVersionID: b.versionID,
		PayloadJSON:      []byte(payload),
	}
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want code %s", code)
	}
	if got := apperrors.GetCode(err); got != code {
		t.Fatalf("code = %s (%v), want %s", got, err, code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, err := New(memory.NewStore())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	session, err := svc.CreateSession(ctx, domain.ModePemula)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.Status != domain.SessionCreated {
		t.Fatalf("Status = %q, want CREATED", session.Status)
	}

	// Starting without an activated ruleset version is rejected.
	_, err = svc.StartSession(ctx, session.ID)
	wantCode(t, err, apperrors.CodeDomainRule)

	if _, err := svc.CreateSession(ctx, "HARD"); err == nil {
		t.Fatal("CreateSession() error = nil, want invalid mode rejection")
	}
}

func TestSessionTransitionsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	ended, err := b.svc.EndSession(ctx, b.session.ID)
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if ended.Status != domain.SessionEnded {
		t.Fatalf("Status = %q, want ENDED", ended.Status)
	}

	if _, err := b.svc.StartSession(ctx, b.session.ID); err == nil {
		t.Fatal("StartSession() error = nil, want rejection after end")
	}
	_, err = b.svc.AddPlayer(ctx, b.session.ID, "Late Joiner")
	wantCode(t, err, apperrors.CodeDomainRule)
}

func TestSubmitEventAccepted(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	result, err := b.svc.SubmitEvent(ctx, b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`))
	if err != nil {
		t.Fatalf("SubmitEvent() error = %v", err)
	}
	if result.Event.ReceivedAt.IsZero() {
		t.Fatal("ReceivedAt is zero, want stamped acceptance time")
	}
	if result.Projection == nil {
		t.Fatal("Projection = nil, want a derived ledger entry")
	}
	if result.Projection.Direction != event.DirectionIn || result.Projection.Amount != 10 {
		t.Fatalf("Projection = %+v, want IN 10", result.Projection)
	}
}

func TestSubmitEventIdempotentResubmit(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	evt := b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	if _, err := b.svc.SubmitEvent(ctx, evt); err != nil {
		t.Fatalf("SubmitEvent() error = %v", err)
	}

	_, err := b.svc.SubmitEvent(ctx, evt)
	wantCode(t, err, apperrors.CodeDuplicate)

	// The journal still holds exactly one event.
	events, err := b.svc.ListEvents(ctx, b.session.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
}

func TestSubmitEventSequenceGap(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	_, err := b.svc.SubmitEvent(ctx, b.event(5, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`))
	wantCode(t, err, apperrors.CodeDomainRule)
}

func TestSubmitEventGuards(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	missing := b.event(0, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	missing.SessionID = ""
	_, err := b.svc.SubmitEvent(ctx, missing)
	wantCode(t, err, apperrors.CodeValidation)

	stranger := b.event(0, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	stranger.PlayerID = "nobody"
	_, err = b.svc.SubmitEvent(ctx, stranger)
	wantCode(t, err, apperrors.CodeNotFound)

	wrongVersion := b.event(0, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	wrongVersion.RulesetVersionID = "missing-version"
	_, err = b.svc.SubmitEvent(ctx, wrongVersion)
	wantCode(t, err, apperrors.CodeNotFound)

	badDay := b.event(0, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	badDay.Weekday = "FUNDAY"
	_, err = b.svc.SubmitEvent(ctx, badDay)
	wantCode(t, err, apperrors.CodeValidation)
}

func TestSubmitEventRequiresStartedSession(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	if _, err := b.svc.EndSession(ctx, b.session.ID); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}

	_, err := b.svc.SubmitEvent(ctx, b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`))
	wantCode(t, err, apperrors.CodeDomainRule)
}

func TestSubmitEventsBatchContinuesOnError(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	batch := []event.Event{
		b.event(0, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 10, "category": "GIFT"}`),
		b.event(9, event.ActionTransactionRecorded, `{"direction": "IN", "amount": 5, "category": "GIFT"}`),
		b.event(1, event.ActionTransactionRecorded, `{"direction": "OUT", "amount": 5, "category": "NEEDS"}`),
	}

	result, err := b.svc.SubmitEvents(ctx, batch)
	if err != nil {
		t.Fatalf("SubmitEvents() error = %v", err)
	}
	if result.Accepted != 2 {
		t.Fatalf("Accepted = %d, want 2", result.Accepted)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want exactly one", result.Failures)
	}
	failure := result.Failures[0]
	if failure.EventID != "evt-9" {
		t.Fatalf("failure EventID = %q, want evt-9", failure.EventID)
	}
	if failure.Code != apperrors.CodeDomainRule || failure.Rule != "SEQUENCE_GAP" {
		t.Fatalf("failure = %+v, want DOMAIN_RULE_VIOLATION / SEQUENCE_GAP", failure)
	}
}

func TestListEventsPaged(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	for i := 0; i < 5; i++ {
		evt := b.event(uint64(i), event.ActionTransactionRecorded,
			`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
		if _, err := b.svc.SubmitEvent(ctx, evt); err != nil {
			t.Fatalf("SubmitEvent(%d) error = %v", i, err)
		}
	}

	page, err := b.svc.ListEvents(ctx, b.session.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	if page[0].Sequence != 2 || page[1].Sequence != 3 {
		t.Fatalf("page sequences = %d,%d, want 2,3", page[0].Sequence, page[1].Sequence)
	}

	// Limits above the maximum are clamped, not rejected.
	all, err := b.svc.ListEvents(ctx, b.session.ID, 0, 100000)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5", len(all))
	}
}

func TestValidationLogRecordsEveryAttempt(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	accepted := b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	if _, err := b.svc.SubmitEvent(ctx, accepted); err != nil {
		t.Fatalf("SubmitEvent() error = %v", err)
	}

	rejected := b.event(7, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	if _, err := b.svc.SubmitEvent(ctx, rejected); err == nil {
		t.Fatal("SubmitEvent() error = nil, want gap rejection")
	}

	entries, err := b.svc.ListValidationLog(ctx, b.session.ID, 10)
	if err != nil {
		t.Fatalf("ListValidationLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	outcomes := make(map[string]storage.ValidationLogEntry)
	for _, entry := range entries {
		outcomes[entry.EventID] = entry
	}
	if outcomes["evt-0"].Outcome != storage.OutcomeAccepted {
		t.Fatalf("evt-0 outcome = %q, want ACCEPTED", outcomes["evt-0"].Outcome)
	}
	bad := outcomes["evt-7"]
	if bad.Outcome != storage.OutcomeRejected {
		t.Fatalf("evt-7 outcome = %q, want REJECTED", bad.Outcome)
	}
	if bad.ErrorCode != string(apperrors.CodeDomainRule) || bad.RuleCode != "SEQUENCE_GAP" {
		t.Fatalf("evt-7 entry = %+v, want DOMAIN_RULE_VIOLATION / SEQUENCE_GAP", bad)
	}
}

func TestComputeAndLatestMetrics(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	in := b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 30, "category": "GIFT"}`)
	if _, err := b.svc.SubmitEvent(ctx, in); err != nil {
		t.Fatalf("SubmitEvent() error = %v", err)
	}
	out := b.event(1, event.ActionTransactionRecorded,
		`{"direction": "OUT", "amount": 10, "category": "NEEDS"}`)
	if _, err := b.svc.SubmitEvent(ctx, out); err != nil {
		t.Fatalf("SubmitEvent() error = %v", err)
	}

	snapshots, err := b.svc.ComputeMetrics(ctx, b.session.ID)
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	if len(snapshots) == 0 {
		t.Fatal("ComputeMetrics() returned no snapshots")
	}

	latest, err := b.svc.LatestMetrics(ctx, b.session.ID)
	if err != nil {
		t.Fatalf("LatestMetrics() error = %v", err)
	}
	found := false
	for _, snap := range latest {
		if snap.PlayerID == b.player.ID && snap.Name == "player.cash.net" {
			found = true
			if snap.Value != 20 {
				t.Fatalf("player cash net = %v, want 20", snap.Value)
			}
		}
	}
	if !found {
		t.Fatalf("latest = %+v, missing player cash net", latest)
	}
}

func TestVerifySequence(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	for i := 0; i < 3; i++ {
		evt := b.event(uint64(i), event.ActionTransactionRecorded,
			`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
		if _, err := b.svc.SubmitEvent(ctx, evt); err != nil {
			t.Fatalf("SubmitEvent(%d) error = %v", i, err)
		}
	}

	if err := b.svc.VerifySequence(ctx, b.session.ID); err != nil {
		t.Fatalf("VerifySequence() error = %v", err)
	}
}

func TestCreateRulesetVersionRetiresPrior(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	ruleset, err := b.svc.CreateRuleset(ctx, "evolving")
	if err != nil {
		t.Fatalf("CreateRuleset() error = %v", err)
	}
	v1, err := b.svc.CreateRulesetVersion(ctx, ruleset.ID, []byte(testConfigJSON))
	if err != nil {
		t.Fatalf("CreateRulesetVersion() error = %v", err)
	}
	v2, err := b.svc.CreateRulesetVersion(ctx, ruleset.ID, []byte(testConfigJSON))
	if err != nil {
		t.Fatalf("CreateRulesetVersion() error = %v", err)
	}
	if v2.Number != 2 {
		t.Fatalf("Number = %d, want 2", v2.Number)
	}

	// The retired version can no longer be activated.
	_, err = b.svc.ActivateVersion(ctx, b.session.ID, v1.ID)
	wantCode(t, err, apperrors.CodeDomainRule)

	if _, err := b.svc.ActivateVersion(ctx, b.session.ID, v2.ID); err != nil {
		t.Fatalf("ActivateVersion() error = %v", err)
	}
}

func TestCreateRulesetVersionRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	ruleset, err := b.svc.CreateRuleset(ctx, "broken")
	if err != nil {
		t.Fatalf("CreateRuleset() error = %v", err)
	}
	_, err = b.svc.CreateRulesetVersion(ctx, ruleset.ID, []byte(`{"mode": "PEMULA"}`))
	wantCode(t, err, apperrors.CodeValidation)

	versions := 0
	if list, err := b.svc.store.ListRulesetVersions(ctx, ruleset.ID); err == nil {
		versions = len(list)
	}
	if versions != 0 {
		t.Fatalf("stored versions = %d, want 0 after rejected config", versions)
	}
}

func TestStaleVersionOnEvent(t *testing.T) {
	ctx := context.Background()
	b := newBench(t)

	ruleset, err := b.svc.CreateRuleset(ctx, "other")
	if err != nil {
		t.Fatalf("CreateRuleset() error = %v", err)
	}
	other, err := b.svc.CreateRulesetVersion(ctx, ruleset.ID, []byte(testConfigJSON))
	if err != nil {
		t.Fatalf("CreateRulesetVersion() error = %v", err)
	}

	// The event references a real version that is not the session's binding.
	evt := b.event(0, event.ActionTransactionRecorded,
		`{"direction": "IN", "amount": 10, "category": "GIFT"}`)
	evt.RulesetVersionID = other.ID
	_, err = b.svc.SubmitEvent(ctx, evt)
	wantCode(t, err, apperrors.CodeDomainRule)
}
