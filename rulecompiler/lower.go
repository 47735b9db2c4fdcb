package rulecompiler

import (
	"fmt"

	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// lowerSeq implements "require A before B" per §4.6:
// places idle, ready, gate; init idle=1;
// start: idle→ready (auto); do-A: ready→gate, licenses A, deferred=true;
// do-B: gate→ready, licenses B.
func lowerSeq(name string, a, b string) *skillnet.Net {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"ready"}, Outputs: []petri.Place{"gate"}},
			{Name: "do-B", Inputs: []petri.Place{"gate"}, Outputs: []petri.Place{"ready"}},
		},
	}
	return &skillnet.Net{
		Name:   name,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{a: {}}, Deferred: true},
			"do-B":  {Type: skillnet.Automatic, Tools: map[string]struct{}{b: {}}},
		},
	}
}

// lowerApproval implements "require human-approval before B":
// places idle, ready; init idle=1; start: idle→ready (auto);
// approve: ready→ready (manual), licenses B.
func lowerApproval(name string, b string) *skillnet.Net {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "approve", Inputs: []petri.Place{"ready"}, Outputs: []petri.Place{"ready"}},
		},
	}
	return &skillnet.Net{
		Name:   name,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start":   {Type: skillnet.Automatic},
			"approve": {Type: skillnet.Manual, Tools: map[string]struct{}{b: {}}},
		},
	}
}

// lowerBlock implements "block A":
// places idle, ready, locked; init idle=1; start: idle→ready;
// do-A: locked→locked, licenses A. locked is never tokened so do-A is dead.
func lowerBlock(name string, a string) *skillnet.Net {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"locked"}, Outputs: []petri.Place{"locked"}},
		},
	}
	return &skillnet.Net{
		Name:   name,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net, "locked"),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{a: {}}},
		},
	}
}

// lowerLimitSession implements "limit A to N per session":
// places idle, ready, budget; init idle=1, budget=N; start: idle→ready;
// do-A: ready+budget → ready, licenses A.
func lowerLimitSession(name string, a string, n int) *skillnet.Net {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1, "budget": n},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"ready", "budget"}, Outputs: []petri.Place{"ready"}},
		},
	}
	return &skillnet.Net{
		Name:   name,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{a: {}}},
		},
	}
}

// lowerLimitRefill implements "limit A to N per S" (S != session):
// places idle, ready, budget, spent; init idle=1, budget=N, spent=0;
// start: idle→ready; do-A: ready+budget → ready+spent, licenses A;
// refill: ready+spent → ready+budget, licenses S.
func lowerLimitRefill(name string, a string, n int, s string) *skillnet.Net {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1, "budget": n, "spent": 0},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"ready", "budget"}, Outputs: []petri.Place{"ready", "spent"}},
			{Name: "refill", Inputs: []petri.Place{"ready", "spent"}, Outputs: []petri.Place{"ready", "budget"}},
		},
	}
	return &skillnet.Net{
		Name:   name,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start":  {Type: skillnet.Automatic},
			"do-A":   {Type: skillnet.Automatic, Tools: map[string]struct{}{a: {}}},
			"refill": {Type: skillnet.Automatic, Tools: map[string]struct{}{s: {}}},
		},
	}
}

// netNameFor derives a unique, readable net name for a rule; a name already
// used in the batch gets a numeric suffix (-2, -3, ...). The index argument
// is not used. Names must be unique within a compilation batch (§3).
func netNameFor(r Rule, index int, used map[string]struct{}) string {
	base := baseName(r)
	name := base
	for i := 2; ; i++ {
		if _, dup := used[name]; !dup {
			break
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
	used[name] = struct{}{}
	_ = index
	return name
}

func baseName(r Rule) string {
	switch r.Kind {
	case KindSeq:
		return fmt.Sprintf("require-%s-before-%s", r.SeqA, r.SeqB)
	case KindApproval:
		return fmt.Sprintf("require-human-approval-before-%s", r.ApprovalB)
	case KindBlock:
		return fmt.Sprintf("block-%s", r.BlockTool)
	case KindLimit:
		return fmt.Sprintf("limit-%s-to-%d-per-%s", r.LimitTool, r.LimitN, r.LimitScope)
	default:
		return "rule"
	}
}

// lower dispatches a single rule to its net constructor.
func lower(r Rule, name string) *skillnet.Net {
	switch r.Kind {
	case KindSeq:
		return lowerSeq(name, r.SeqA, r.SeqB)
	case KindApproval:
		return lowerApproval(name, r.ApprovalB)
	case KindBlock:
		return lowerBlock(name, r.BlockTool)
	case KindLimit:
		if r.LimitScope == "session" {
			return lowerLimitSession(name, r.LimitTool, r.LimitN)
		}
		return lowerLimitRefill(name, r.LimitTool, r.LimitN, r.LimitScope)
	default:
		return nil
	}
}
