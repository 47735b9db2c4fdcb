package petri

import "testing"

func twoPlaceNet() Net {
	return Net{
		InitialMarking: Marking{"idle": 1},
		Transitions: []Transition{
			{Name: "start", Inputs: []Place{"idle"}, Outputs: []Place{"ready"}},
			{Name: "loop", Inputs: []Place{"ready"}, Outputs: []Place{"ready"}},
		},
	}
}

func TestCanFire(t *testing.T) {
	net := twoPlaceNet()
	start, _ := net.TransitionByName("start")
	if !CanFire(net.InitialMarking, start) {
		t.Fatal("start should be enabled at the initial marking")
	}
	loop, _ := net.TransitionByName("loop")
	if CanFire(net.InitialMarking, loop) {
		t.Fatal("loop should not be enabled before start fires")
	}
}

func TestFire_ConsumesAndProduces(t *testing.T) {
	net := twoPlaceNet()
	start, _ := net.TransitionByName("start")
	next, err := Fire(net.InitialMarking, start)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if next["idle"] != 0 || next["ready"] != 1 {
		t.Fatalf("unexpected marking after fire: %+v", next)
	}
	// Original marking must be untouched.
	if net.InitialMarking["idle"] != 1 {
		t.Fatalf("Fire mutated the input marking")
	}
}

func TestFire_NotEnabled(t *testing.T) {
	net := twoPlaceNet()
	loop, _ := net.TransitionByName("loop")
	if _, err := Fire(net.InitialMarking, loop); err != ErrNotEnabled {
		t.Fatalf("expected ErrNotEnabled, got %v", err)
	}
}

func TestEnabled_PreservesDeclarationOrder(t *testing.T) {
	net := Net{
		InitialMarking: Marking{"p": 2},
		Transitions: []Transition{
			{Name: "b", Inputs: []Place{"p"}, Outputs: []Place{"q"}},
			{Name: "a", Inputs: []Place{"p"}, Outputs: []Place{"r"}},
		},
	}
	en := Enabled(net, net.InitialMarking)
	if len(en) != 2 || en[0].Name != "b" || en[1].Name != "a" {
		t.Fatalf("expected declaration order [b a], got %v", namesOf(en))
	}
}

func namesOf(ts []Transition) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestArcWeight_RepeatedPlaceConsumesMultiple(t *testing.T) {
	net := Net{
		InitialMarking: Marking{"budget": 1},
		Transitions: []Transition{
			{Name: "spend2", Inputs: []Place{"budget", "budget"}, Outputs: []Place{"spent"}},
		},
	}
	t0, _ := net.TransitionByName("spend2")
	if CanFire(net.InitialMarking, t0) {
		t.Fatal("spend2 should require 2 budget tokens, only 1 present")
	}
	m := Marking{"budget": 2}
	next, err := Fire(m, t0)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if next["budget"] != 0 || next["spent"] != 1 {
		t.Fatalf("unexpected marking: %+v", next)
	}
}
