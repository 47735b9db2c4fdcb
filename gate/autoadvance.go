package gate

import (
	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// AutoAdvanceOptions tunes the advance algorithm. The zero value is the
// spec-exact behavior: abstain on first-round ambiguity.
type AutoAdvanceOptions struct {
	// DeterministicTieBreak, if true, fires the first enabled structural
	// transition in declaration order instead of abstaining when a round
	// has an unresolved conflict. This is a documented, non-default
	// extension (§9 "Open questions"); leave false to match the reference
	// algorithm exactly.
	DeterministicTieBreak bool
}

// structuralTransitions returns the net's transitions whose gating kind is
// skillnet.Structural, in declaration order.
func structuralTransitions(sn *skillnet.Net) []petri.Transition {
	var out []petri.Transition
	for _, t := range sn.Net.Transitions {
		if sn.KindOf(t.Name) == skillnet.Structural {
			out = append(out, t)
		}
	}
	return out
}

// sharesInput reports whether a and b both consume from at least one
// common place.
func sharesInput(a, b petri.Transition) bool {
	bIn := make(map[petri.Place]struct{}, len(b.Inputs))
	for _, p := range b.Inputs {
		bIn[p] = struct{}{}
	}
	for _, p := range a.Inputs {
		if _, ok := bIn[p]; ok {
			return true
		}
	}
	return false
}

// canFireBoth reports whether marking m holds enough tokens to fire a and
// b simultaneously, accounting for places they share.
func canFireBoth(m petri.Marking, a, b petri.Transition) bool {
	need := make(map[petri.Place]int)
	for _, p := range a.Inputs {
		need[p]++
	}
	for _, p := range b.Inputs {
		need[p]++
	}
	for p, n := range need {
		if m[p] < n {
			return false
		}
	}
	return true
}

// unambiguousSubset implements §4.3 step 2: a transition t is unambiguous
// iff, for every other enabled structural t' != t, the marking has enough
// tokens to fire both t and t' (ignoring places neither shares with the
// other). Transitions with any unresolved conflict are excluded.
func unambiguousSubset(m petri.Marking, enabled []petri.Transition) []petri.Transition {
	var out []petri.Transition
	for i, t := range enabled {
		ok := true
		for j, other := range enabled {
			if i == j {
				continue
			}
			if !sharesInput(t, other) {
				continue
			}
			if !canFireBoth(m, t, other) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// Advance fires structural transitions to quiescence per §4.3, returning
// the resulting marking. It never mutates m.
func Advance(sn *skillnet.Net, m petri.Marking, opts AutoAdvanceOptions) petri.Marking {
	cur := m.Clone()
	for {
		structural := structuralTransitions(sn)
		var enabled []petri.Transition
		for _, t := range structural {
			if petri.CanFire(cur, t) {
				enabled = append(enabled, t)
			}
		}
		if len(enabled) == 0 {
			return cur
		}

		var toFire []petri.Transition
		if opts.DeterministicTieBreak {
			toFire = enabled[:1]
		} else {
			toFire = unambiguousSubset(cur, enabled)
			if len(toFire) == 0 {
				return cur // ambiguity preserved; stop for this round
			}
		}

		fired := false
		for _, t := range toFire {
			if !petri.CanFire(cur, t) {
				continue // consumed earlier in this same round
			}
			next, err := petri.Fire(cur, t)
			if err != nil {
				continue
			}
			cur = next
			fired = true
		}
		if !fired {
			return cur
		}
	}
}
