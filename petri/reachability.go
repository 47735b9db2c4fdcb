package petri

import (
	"sort"
	"strconv"
	"strings"
)

// key canonicalizes a marking into a hashable string, independent of
// iteration order over the map. Only places named by the net are included
// (places absent from both the marking and the net's declared set are
// meaningless and never arise here), so two markings that agree on every
// declared place always hash identically regardless of which keys happen
// to be present in the underlying map.
func key(places []Place, m Marking) string {
	var sb strings.Builder
	for _, p := range places {
		sb.WriteString(string(p))
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(m[p]))
		sb.WriteByte(';')
	}
	return sb.String()
}

// sortedPlaces returns the net's places in a stable, deterministic order.
func sortedPlaces(net Net) []Place {
	set := net.Places()
	places := make([]Place, 0, len(set))
	for p := range set {
		places = append(places, p)
	}
	sort.Slice(places, func(i, j int) bool { return places[i] < places[j] })
	return places
}

// Reachable enumerates every marking reachable from net's initial marking
// via breadth-first search over transition firings. If bound is non-nil and
// the number of discovered markings exceeds *bound before the search
// exhausts the frontier, it returns ErrStateSpaceExceeded. A nil bound
// requires the net to be structurally bounded — the caller is responsible
// for only calling this on nets expected to terminate.
func Reachable(net Net, bound *int) ([]Marking, error) {
	places := sortedPlaces(net)

	visited := make(map[string]Marking)
	start := net.InitialMarking.Clone()
	visited[key(places, start)] = start

	queue := []Marking{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, t := range Enabled(net, cur) {
			next, err := Fire(cur, t)
			if err != nil {
				// Enabled just confirmed CanFire; this cannot happen.
				continue
			}
			k := key(places, next)
			if _, seen := visited[k]; seen {
				continue
			}
			if bound != nil && len(visited) >= *bound {
				return nil, ErrStateSpaceExceeded
			}
			visited[k] = next
			queue = append(queue, next)
		}
	}

	out := make([]Marking, 0, len(visited))
	for _, m := range visited {
		out = append(out, m)
	}
	return out, nil
}

// Terminal returns every reachable marking at which no transition of net
// is enabled — the markings at which the net can make no further progress
// on its own.
func Terminal(net Net, bound *int) ([]Marking, error) {
	all, err := Reachable(net, bound)
	if err != nil {
		return nil, err
	}
	var out []Marking
	for _, m := range all {
		if len(Enabled(net, m)) == 0 {
			out = append(out, m)
		}
	}
	return out, nil
}
