// Package petri implements the Petri net kernel: places, transitions,
// markings, firing, and the structural analyses (reachability, terminal
// detection, invariant checking) built on top of them.
//
// The kernel knows nothing about tools, gating, or agents — it is pure
// token-arithmetic over a declared set of places. Higher layers (skillnet,
// gate, analyzer) attach meaning to places and transitions.
package petri

// Place is a named location holding a non-negative integer count of
// indistinguishable tokens. Its identity is its name.
type Place string

// Marking is a total mapping from a net's declared places to non-negative
// token counts. Places absent from the map are implicitly 0.
type Marking map[Place]int

// Clone returns a deep copy of the marking.
func (m Marking) Clone() Marking {
	c := make(Marking, len(m))
	for p, n := range m {
		c[p] = n
	}
	return c
}

// Equal reports whether two markings agree on every place named by either,
// treating an absent place as 0. This is the canonical equality used by
// reachability enumeration.
func (m Marking) Equal(other Marking) bool {
	for p, n := range m {
		if other[p] != n {
			return false
		}
	}
	for p, n := range other {
		if m[p] != n {
			return false
		}
	}
	return true
}

// Transition is a named input/output multiset of places. Firing a
// transition decrements its inputs and increments its outputs. A place
// repeated in Inputs/Outputs encodes an arc weight greater than one.
type Transition struct {
	Name    string
	Inputs  []Place
	Outputs []Place
}

// inputCounts returns the multiplicity of each input place (the arc
// weight the transition consumes from that place).
func (t Transition) inputCounts() map[Place]int {
	counts := make(map[Place]int, len(t.Inputs))
	for _, p := range t.Inputs {
		counts[p]++
	}
	return counts
}

// outputCounts returns the multiplicity of each output place.
func (t Transition) outputCounts() map[Place]int {
	counts := make(map[Place]int, len(t.Outputs))
	for _, p := range t.Outputs {
		counts[p]++
	}
	return counts
}

// Net is a bare Petri net: an ordered list of transitions plus an initial
// marking. Places are implicit — the union of every place name appearing
// in the initial marking or in any transition's inputs/outputs. Transition
// declaration order is preserved and is significant (see Enabled).
type Net struct {
	Transitions    []Transition
	InitialMarking Marking
}

// Places returns the set of places referenced anywhere in the net, in no
// particular order. Callers that need a stable order should sort the result.
func (n Net) Places() map[Place]struct{} {
	places := make(map[Place]struct{})
	for p := range n.InitialMarking {
		places[p] = struct{}{}
	}
	for _, t := range n.Transitions {
		for _, p := range t.Inputs {
			places[p] = struct{}{}
		}
		for _, p := range t.Outputs {
			places[p] = struct{}{}
		}
	}
	return places
}

// TransitionByName returns the transition with the given name, or false if
// no such transition exists.
func (n Net) TransitionByName(name string) (Transition, bool) {
	for _, t := range n.Transitions {
		if t.Name == name {
			return t, true
		}
	}
	return Transition{}, false
}
