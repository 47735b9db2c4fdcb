package petri

import (
	"fmt"
	"sort"
	"strings"
)

// DOT renders net as a Graphviz digraph. If m is non-nil, each place node
// is labeled with its current token count from m; otherwise places are
// labeled with their initial marking. Bit-level output is not a contract —
// this is a debugging/visualization aid, not a wire format.
func DOT(net Net, m Marking) string {
	if m == nil {
		m = net.InitialMarking
	}

	places := sortedPlaces(net)

	var sb strings.Builder
	sb.WriteString("digraph petrinet {\n")
	sb.WriteString("  rankdir=LR;\n")

	for _, p := range places {
		sb.WriteString(fmt.Sprintf("  %q [shape=circle, label=%q];\n", "place_"+string(p), fmt.Sprintf("%s\\n(%d)", p, m[p])))
	}
	for i, t := range net.Transitions {
		tid := fmt.Sprintf("t%d_%s", i, t.Name)
		sb.WriteString(fmt.Sprintf("  %q [shape=box, label=%q];\n", tid, t.Name))
		for _, p := range sortedUnique(t.Inputs) {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", "place_"+string(p), tid))
		}
		for _, p := range sortedUnique(t.Outputs) {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", tid, "place_"+string(p)))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func sortedUnique(ps []Place) []Place {
	set := make(map[Place]struct{}, len(ps))
	for _, p := range ps {
		set[p] = struct{}{}
	}
	out := make([]Place, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
