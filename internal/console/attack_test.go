package console

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

func TestAttackAppliesThreeWritesInOrder(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.console.Attack(ctx, AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: 3})
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if res.Status != store.StatusSucceeded {
		t.Errorf("status = %q, want succeeded", res.Status)
	}

	want := []struct {
		path  string
		field string
		value float64
	}{
		{"/api/teams/1/", "attacked_count", 5},
		{"/api/players/1/", "personal_score", 4},
		{"/api/teams/2/", "score", 11},
	}
	muts := f.api.Mutations()
	if len(muts) != len(want) {
		t.Fatalf("got %d mutations, want %d: %+v", len(muts), len(want), muts)
	}
	for i, w := range want {
		m := muts[i]
		if m.Method != http.MethodPatch || m.Path != w.path {
			t.Errorf("mutation %d = %s %s, want PATCH %s", i, m.Method, m.Path, w.path)
		}
		if len(m.Body) != 1 {
			t.Errorf("mutation %d body = %v, want only %q", i, m.Body, w.field)
		}
		if got := m.Body[w.field]; got != w.value {
			t.Errorf("mutation %d %s = %v, want %v", i, w.field, got, w.value)
		}
	}

	if got := f.api.Team(1).AttackedCount; got != 5 {
		t.Errorf("server Red.attacked_count = %d, want 5", got)
	}
	if got := f.api.Player(1).PersonalScore; got != 4 {
		t.Errorf("server Ann.personal_score = %d, want 4", got)
	}
	if got := f.api.Team(2).Score; got != 11 {
		t.Errorf("server Blue.score = %d, want 11", got)
	}

	// The cache reflects every write without waiting for a tick.
	if red, _ := f.console.teams.Find(1); red.AttackedCount != 5 {
		t.Errorf("cached Red.attacked_count = %d, want 5", red.AttackedCount)
	}
	if blue, _ := f.console.teams.Find(2); blue.Score != 11 {
		t.Errorf("cached Blue.score = %d, want 11", blue.Score)
	}
	if p, _ := f.console.players.Find(1); p.PersonalScore != 4 {
		t.Errorf("cached Ann.personal_score = %d, want 4", p.PersonalScore)
	}

	if got := f.pub.on(TeamTopic("red")); len(got) != 1 {
		t.Errorf("red topic events = %d, want 1", len(got))
	}
	if got := f.pub.on(TeamTopic("Blue")); len(got) != 1 {
		t.Errorf("blue topic events = %d, want 1", len(got))
	}

	actions, err := f.journal.ListActions(ctx, 10)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != KindAttack || actions[0].Status != store.StatusSucceeded {
		t.Fatalf("journal = %+v, want one succeeded attack", actions)
	}
	if len(actions[0].Steps) != 3 {
		t.Errorf("journaled steps = %d, want 3", len(actions[0].Steps))
	}
}

func TestAttackValidationMakesNoRequests(t *testing.T) {
	tests := []struct {
		name string
		req  AttackRequest
	}{
		{"missing target", AttackRequest{AttackerTeam: "Blue", AttackerNumber: "7", Count: 1}},
		{"missing attacker", AttackRequest{TargetTeam: "Red", AttackerNumber: "7", Count: 1}},
		{"missing number", AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", Count: 1}},
		{"same team", AttackRequest{TargetTeam: " blue ", AttackerTeam: "BLUE", AttackerNumber: "7", Count: 1}},
		{"zero count", AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: 0}},
		{"negative count", AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: -2}},
		{"count over limit", AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: MaxAttackCount + 1}},
		{"unknown attacker team", AttackRequest{TargetTeam: "Red", AttackerTeam: "Green", AttackerNumber: "7", Count: 1}},
		{"player from other team", AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "3", Count: 1}},
	}

	f := newFixture(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.console.Attack(context.Background(), tt.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if muts := f.api.Mutations(); len(muts) != 0 {
				t.Errorf("sent %d mutations, want none", len(muts))
			}
		})
	}
}

func TestAttackUnknownTarget(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.console.Attack(context.Background(), AttackRequest{TargetTeam: "Nobody", AttackerTeam: "Blue", AttackerNumber: "7", Count: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if muts := f.api.Mutations(); len(muts) != 0 {
		t.Errorf("sent %d mutations, want none", len(muts))
	}
}

func TestPlanAttackRejectsOverflow(t *testing.T) {
	_, err := PlanAttack(
		AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: MaxAttackCount},
		[]scoring.Team{{ID: 1, Name: "Red"}, {ID: 2, Name: "Blue", Score: 10}},
		[]scoring.Player{{ID: 1, Number: "7", Team: ptr(2)}},
		scoring.Settings{AttackedIncrement: 1, AttackerPlayerBonus: 1, AttackerTeamBonus: 1 << 30},
		true,
	)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestAttackRequiresLoadedSettings(t *testing.T) {
	_, err := PlanAttack(
		AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: 1},
		[]scoring.Team{{ID: 1, Name: "Red"}, {ID: 2, Name: "Blue"}},
		[]scoring.Player{{ID: 1, Number: "7", Team: ptr(2)}},
		scoring.Settings{},
		false,
	)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestAttackCompensatesOnPartialFailure(t *testing.T) {
	f := newFixture(t, true)
	f.api.FailNext(http.MethodPatch, "/api/teams/2/", http.StatusInternalServerError)

	res, err := f.console.Attack(context.Background(), AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: 3})
	var ae *ActionError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want ActionError", err)
	}
	if ae.Seq != 3 {
		t.Errorf("failed step = %d, want 3", ae.Seq)
	}
	if res.Status != store.StatusCompensated {
		t.Errorf("status = %q, want compensated", res.Status)
	}

	wantSteps := []store.StepStatus{store.StepCompensated, store.StepCompensated, store.StepFailed}
	for i, st := range res.Steps {
		if st.Status != wantSteps[i] {
			t.Errorf("step %d status = %q, want %q", i+1, st.Status, wantSteps[i])
		}
	}

	if got := f.api.Team(1).AttackedCount; got != 2 {
		t.Errorf("Red.attacked_count = %d, want restored 2", got)
	}
	if got := f.api.Player(1).PersonalScore; got != 1 {
		t.Errorf("Ann.personal_score = %d, want restored 1", got)
	}
	if got := f.api.Team(2).Score; got != 5 {
		t.Errorf("Blue.score = %d, want untouched 5", got)
	}

	// Three forward writes then two compensations, newest first.
	muts := f.api.Mutations()
	if len(muts) != 5 {
		t.Fatalf("mutations = %d, want 5", len(muts))
	}
	if muts[3].Path != "/api/players/1/" || muts[4].Path != "/api/teams/1/" {
		t.Errorf("compensation order = %s, %s", muts[3].Path, muts[4].Path)
	}

	actions, err := f.journal.ListActions(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if actions[0].Status != store.StatusCompensated {
		t.Errorf("journaled status = %q, want compensated", actions[0].Status)
	}
}

func TestAttackWithoutCompensationLeavesPartialCommit(t *testing.T) {
	f := newFixture(t, false)
	f.api.FailNext(http.MethodPatch, "/api/players/1/", http.StatusBadGateway)

	res, err := f.console.Attack(context.Background(), AttackRequest{TargetTeam: "Red", AttackerTeam: "Blue", AttackerNumber: "7", Count: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Status != store.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if got := f.api.Team(1).AttackedCount; got != 5 {
		t.Errorf("Red.attacked_count = %d, want 5 (first write kept)", got)
	}
	if got := f.api.Team(2).Score; got != 5 {
		t.Errorf("Blue.score = %d, want 5 (never written)", got)
	}
	if muts := f.api.Mutations(); len(muts) != 2 {
		t.Errorf("mutations = %d, want 2", len(muts))
	}
}
