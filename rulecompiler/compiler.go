package rulecompiler

import (
	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// VerificationReport is the per-net reachability summary §4.6 requires the
// compiler to produce.
type VerificationReport struct {
	Name                string
	ReachableStateCount int
}

// Options tunes compilation.
type Options struct {
	// StateBound caps reachability verification per emitted net. A net
	// whose state space exceeds this bound fails compilation with
	// ErrUnboundedRuleNet. Rule-compiled nets are guaranteed bounded by
	// construction (§9), so the default below is generous; callers may
	// lower it for tests.
	StateBound int
}

// DefaultStateBound is used when Options.StateBound is left at zero.
const DefaultStateBound = 100_000

// Result is everything Compile produces from a DSL source batch.
type Result struct {
	Nets          []*skillnet.Net
	Verifications []VerificationReport
}

// Compile parses one or more DSL source strings, lowers each non-map rule
// to a minimal skill net, attaches a combined tool mapper (built from every
// map line and every emitted net's licensed tools) to each net, and
// verifies each net's reachable state space against opts.StateBound.
func Compile(opts Options, sources ...string) (*Result, error) {
	if opts.StateBound <= 0 {
		opts.StateBound = DefaultStateBound
	}

	rules, err := Parse(sources...)
	if err != nil {
		return nil, err
	}

	var nets []*skillnet.Net
	used := make(map[string]struct{})
	for i, r := range rules {
		if r.Kind == KindMap {
			continue
		}
		name := netNameFor(r, i, used)
		sn := lower(r, name)
		if sn == nil {
			continue
		}
		if err := sn.Validate(); err != nil {
			return nil, err
		}
		nets = append(nets, sn)
	}

	var allTools []string
	for _, sn := range nets {
		for _, t := range sn.Net.Transitions {
			meta := sn.TransitionMetaFor(t.Name)
			for tool := range meta.Tools {
				allTools = append(allTools, tool)
			}
		}
	}

	mapper, err := buildToolMapper(rules, allTools)
	if err != nil {
		return nil, err
	}
	for _, sn := range nets {
		sn.ToolMapper = mapper.Resolve
	}

	var reports []VerificationReport
	bound := opts.StateBound
	for _, sn := range nets {
		markings, err := petri.Reachable(sn.Net, &bound)
		if err != nil {
			return nil, &boundedNetError{Net: sn.Name, Err: ErrUnboundedRuleNet}
		}
		reports = append(reports, VerificationReport{Name: sn.Name, ReachableStateCount: len(markings)})
	}

	return &Result{Nets: nets, Verifications: reports}, nil
}

// boundedNetError names the net that failed verification while still
// unwrapping to ErrUnboundedRuleNet for errors.Is callers.
type boundedNetError struct {
	Net string
	Err error
}

func (e *boundedNetError) Error() string {
	return "rulecompiler: net " + e.Net + ": " + e.Err.Error()
}

func (e *boundedNetError) Unwrap() error { return e.Err }
