// Package analyzer wraps the petri kernel to answer the questions an
// operator actually has about a compiled skill net: how big is its state
// space, does it ever deadlock, and do its declared invariants hold.
package analyzer

import (
	"fmt"

	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// Invariant is a named weighted-sum check: the weighted token sum must be
// constant across every reachable marking.
type Invariant struct {
	Name    string
	Weights map[petri.Place]int
}

// InvariantResult is one Invariant's outcome.
type InvariantResult struct {
	Name  string
	Holds bool
	// Err is set if verification could not complete (state space exceeded).
	Err error
}

// Report is everything §4.7 asks the analyzer to produce for a net.
type Report struct {
	NetName                  string
	ReachableStateCount      int
	TerminalStates           []petri.Marking
	ValidTerminalStates      []petri.Marking
	UnexpectedTerminalStates []petri.Marking
	Invariants               []InvariantResult
}

// Options tunes analysis.
type Options struct {
	// StateBound caps reachability enumeration. Zero means unbounded
	// (the caller asserts the net is structurally bounded).
	StateBound int
}

// Analyze runs full §4.7 analysis against a skill net.
func Analyze(sn *skillnet.Net, invariants []Invariant, opts Options) (*Report, error) {
	var bound *int
	if opts.StateBound > 0 {
		b := opts.StateBound
		bound = &b
	}

	reachable, err := petri.Reachable(sn.Net, bound)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reachability for net %q: %w", sn.Name, err)
	}

	terminal, err := petri.Terminal(sn.Net, bound)
	if err != nil {
		return nil, fmt.Errorf("analyzer: terminal states for net %q: %w", sn.Name, err)
	}

	var valid, unexpected []petri.Marking
	for _, m := range terminal {
		if hasTokenInAny(m, sn.TerminalPlaces) {
			valid = append(valid, m)
		} else {
			unexpected = append(unexpected, m)
		}
	}

	var invResults []InvariantResult
	for _, inv := range invariants {
		holds, err := petri.CheckInvariant(sn.Net, inv.Weights, bound)
		invResults = append(invResults, InvariantResult{Name: inv.Name, Holds: holds, Err: err})
	}

	return &Report{
		NetName:                  sn.Name,
		ReachableStateCount:      len(reachable),
		TerminalStates:           terminal,
		ValidTerminalStates:      valid,
		UnexpectedTerminalStates: unexpected,
		Invariants:               invResults,
	}, nil
}

func hasTokenInAny(m petri.Marking, places map[petri.Place]struct{}) bool {
	for p := range places {
		if m[p] > 0 {
			return true
		}
	}
	return false
}

// HasDeadlocks reports whether the report found any unexpected terminal
// state — the canonical safety violation a net must never reach.
func (r *Report) HasDeadlocks() bool {
	return len(r.UnexpectedTerminalStates) > 0
}

// FailingInvariants returns the names of every invariant that either does
// not hold or could not be verified.
func (r *Report) FailingInvariants() []string {
	var out []string
	for _, ir := range r.Invariants {
		if !ir.Holds || ir.Err != nil {
			out = append(out, ir.Name)
		}
	}
	return out
}

// DOT renders the net's structure for inspection, with each place labelled
// by its token count in the initial marking.
func DOT(sn *skillnet.Net) string {
	return petri.DOT(sn.Net, sn.Net.InitialMarking)
}
