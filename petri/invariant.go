package petri

// CheckInvariant reports whether the weighted token sum
// Σ weights[p]·M[p] is constant across every marking reachable from net's
// initial marking. Places absent from weights contribute 0.
func CheckInvariant(net Net, weights map[Place]int, bound *int) (bool, error) {
	markings, err := Reachable(net, bound)
	if err != nil {
		return false, err
	}
	if len(markings) == 0 {
		return true, nil
	}
	want := weightedSum(markings[0], weights)
	for _, m := range markings[1:] {
		if weightedSum(m, weights) != want {
			return false, nil
		}
	}
	return true, nil
}

func weightedSum(m Marking, weights map[Place]int) int {
	sum := 0
	for p, w := range weights {
		sum += w * m[p]
	}
	return sum
}
