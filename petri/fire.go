package petri

// CanFire reports whether t is structurally enabled at marking m: every
// place t consumes from must hold at least as many tokens as the arc
// weight requires.
func CanFire(m Marking, t Transition) bool {
	for p, need := range t.inputCounts() {
		if m[p] < need {
			return false
		}
	}
	return true
}

// Enabled returns every transition in net that is structurally enabled at
// m, preserving the net's declaration order. Callers that need to pick
// among several enabled transitions (the auto-advancer, the gate) apply
// their own policy on top of this order — the kernel itself never chooses.
func Enabled(net Net, m Marking) []Transition {
	var out []Transition
	for _, t := range net.Transitions {
		if CanFire(m, t) {
			out = append(out, t)
		}
	}
	return out
}

// Fire returns the marking that results from firing t at m: m minus t's
// inputs plus t's outputs. It returns ErrNotEnabled if t is not enabled at
// m. The input marking is never mutated.
func Fire(m Marking, t Transition) (Marking, error) {
	if !CanFire(m, t) {
		return nil, ErrNotEnabled
	}
	next := m.Clone()
	for p, n := range t.inputCounts() {
		next[p] -= n
	}
	for p, n := range t.outputCounts() {
		next[p] += n
	}
	return next, nil
}
