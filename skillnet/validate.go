package skillnet

import (
	"fmt"

	"github.com/petrigate/petrigate/petri"
)

// ConfigurationError reports a structural problem in a skill net detected
// at construction time (§7): an unknown place reference, a malformed
// initial marking, or missing gating metadata. Construction-time errors
// are never raised during operation — by the time a Net is handed to a
// gate, it is assumed valid.
type ConfigurationError struct {
	Net     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("skillnet %q: %s", e.Net, e.Message)
}

// Validate checks the invariants §4.2 requires at construction:
//   - every transition input/output references a declared place
//   - initial marking keys are a subset of declared places
//   - terminal places are a subset of declared places
//   - every transition has gating metadata
func (sn *Net) Validate() error {
	if sn.Name == "" {
		return &ConfigurationError{Net: "(unnamed)", Message: "name is required"}
	}
	for p := range sn.Net.InitialMarking {
		if _, ok := sn.Places[p]; !ok {
			return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("initial marking references undeclared place %q", p)}
		}
	}
	for p := range sn.TerminalPlaces {
		if _, ok := sn.Places[p]; !ok {
			return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("terminal place %q is not declared", p)}
		}
	}
	seen := make(map[string]struct{}, len(sn.Net.Transitions))
	for _, t := range sn.Net.Transitions {
		if _, dup := seen[t.Name]; dup {
			return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("duplicate transition name %q", t.Name)}
		}
		seen[t.Name] = struct{}{}

		for _, p := range t.Inputs {
			if _, ok := sn.Places[p]; !ok {
				return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("transition %q input references undeclared place %q", t.Name, p)}
			}
		}
		for _, p := range t.Outputs {
			if _, ok := sn.Places[p]; !ok {
				return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("transition %q output references undeclared place %q", t.Name, p)}
			}
		}
		if _, ok := sn.Transitions[t.Name]; !ok {
			return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("transition %q has no gating metadata", t.Name)}
		}
	}
	for name := range sn.Transitions {
		if _, ok := sn.Net.TransitionByName(name); !ok {
			return &ConfigurationError{Net: sn.Name, Message: fmt.Sprintf("gating metadata references unknown transition %q", name)}
		}
	}
	return nil
}

// DeclaredPlaces builds the Places set of a petri.Net plus any extra names
// (e.g. terminal places not otherwise referenced). Convenience for callers
// building a Net by hand.
func DeclaredPlaces(net petri.Net, extra ...petri.Place) map[petri.Place]struct{} {
	places := net.Places()
	for _, p := range extra {
		places[p] = struct{}{}
	}
	return places
}
