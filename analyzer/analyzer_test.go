package analyzer

import (
	"testing"

	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

func boundedBudgetNet(t *testing.T) *skillnet.Net {
	t.Helper()
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1, "budget": 2},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"ready", "budget"}, Outputs: []petri.Place{"ready"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "limit-search",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{"search": {}}},
		},
		TerminalPlaces: map[petri.Place]struct{}{"ready": {}},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return sn
}

func TestAnalyze_BoundedBudget(t *testing.T) {
	sn := boundedBudgetNet(t)
	report, err := Analyze(sn, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.HasDeadlocks() {
		t.Fatalf("expected no deadlocks, got %v", report.UnexpectedTerminalStates)
	}
	if len(report.ValidTerminalStates) == 0 {
		t.Fatal("expected at least one valid terminal state (budget exhausted, still in ready)")
	}
}

func TestAnalyze_DeadlockDetected(t *testing.T) {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"stuck"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "dead-end",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
		},
		// stuck is never declared as a terminal place, so reaching it is an
		// unexpected terminal state (a deadlock).
		TerminalPlaces: nil,
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	report, err := Analyze(sn, nil, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.HasDeadlocks() {
		t.Fatal("expected the stuck marking to be classified as an unexpected terminal state")
	}
}

func TestAnalyze_InvariantHoldsAcrossFiring(t *testing.T) {
	net := petri.Net{
		InitialMarking: petri.Marking{"a": 2, "b": 0},
		Transitions: []petri.Transition{
			{Name: "move", Inputs: []petri.Place{"a"}, Outputs: []petri.Place{"b"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "conserve",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"move": {Type: skillnet.Automatic},
		},
		TerminalPlaces: map[petri.Place]struct{}{"b": {}},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	inv := Invariant{Name: "token-count", Weights: map[petri.Place]int{"a": 1, "b": 1}}
	report, err := Analyze(sn, []Invariant{inv}, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if fails := report.FailingInvariants(); len(fails) != 0 {
		t.Fatalf("expected token-count invariant to hold, got failures: %v", fails)
	}
}

func TestAnalyze_InvariantViolated(t *testing.T) {
	// Each firing consumes one "a" and produces two "b"s, so the weighted
	// sum a+b grows with every firing — not conserved.
	net := petri.Net{
		InitialMarking: petri.Marking{"a": 2, "b": 0},
		Transitions: []petri.Transition{
			{Name: "spawn", Inputs: []petri.Place{"a"}, Outputs: []petri.Place{"b", "b"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "non-conserving",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"spawn": {Type: skillnet.Automatic},
		},
		TerminalPlaces: map[petri.Place]struct{}{"b": {}},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	inv := Invariant{Name: "token-count", Weights: map[petri.Place]int{"a": 1, "b": 1}}
	report, err := Analyze(sn, []Invariant{inv}, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if fails := report.FailingInvariants(); len(fails) != 1 || fails[0] != "token-count" {
		t.Fatalf("expected token-count invariant to fail, got %v", fails)
	}
}
