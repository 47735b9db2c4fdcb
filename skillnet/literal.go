package skillnet

import (
	"encoding/json"
	"fmt"

	"github.com/petrigate/petrigate/petri"
)

// TransitionLiteral is the wire shape of one transition in the §6 skill-net
// literal form.
type TransitionLiteral struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"` // "automatic" | "manual"
	Inputs   []string `json:"inputs" yaml:"inputs"`
	Outputs  []string `json:"outputs" yaml:"outputs"`
	Tools    []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Deferred bool     `json:"deferred,omitempty" yaml:"deferred,omitempty"`
}

// Literal is the §6 wire contract for a skill net shipped as data. It
// carries no hooks — nets loaded from a literal have nil ToolMapper,
// ValidateToolCall, and OnDeferredResult; callers that need hooks attach
// them after loading (this is exactly how the rule compiler's combined
// tool mapper gets wired onto a compiled net, see rulecompiler.Compile).
type Literal struct {
	Name            string              `json:"name" yaml:"name"`
	Places          []string            `json:"places" yaml:"places"`
	TerminalPlaces  []string            `json:"terminal_places" yaml:"terminal_places"`
	FreeTools       []string            `json:"free_tools" yaml:"free_tools"`
	InitialMarking  map[string]int      `json:"initial_marking" yaml:"initial_marking"`
	Transitions     []TransitionLiteral `json:"transitions" yaml:"transitions"`
}

// ToLiteral converts a Net to its wire form for serialization. Hooks are
// dropped — they are not representable as data.
func (sn *Net) ToLiteral() Literal {
	lit := Literal{
		Name:           sn.Name,
		InitialMarking: make(map[string]int, len(sn.Net.InitialMarking)),
	}
	for p := range sn.Places {
		lit.Places = append(lit.Places, string(p))
	}
	for p := range sn.TerminalPlaces {
		lit.TerminalPlaces = append(lit.TerminalPlaces, string(p))
	}
	for t := range sn.FreeTools {
		lit.FreeTools = append(lit.FreeTools, t)
	}
	for p, n := range sn.Net.InitialMarking {
		lit.InitialMarking[string(p)] = n
	}
	for _, t := range sn.Net.Transitions {
		meta := sn.Transitions[t.Name]
		tl := TransitionLiteral{
			Name:     t.Name,
			Type:     string(meta.Type),
			Deferred: meta.Deferred,
		}
		for _, p := range t.Inputs {
			tl.Inputs = append(tl.Inputs, string(p))
		}
		for _, p := range t.Outputs {
			tl.Outputs = append(tl.Outputs, string(p))
		}
		for tool := range meta.Tools {
			tl.Tools = append(tl.Tools, tool)
		}
		lit.Transitions = append(lit.Transitions, tl)
	}
	return lit
}

// FromLiteral builds and validates a Net from its wire form. The returned
// net has no hooks attached.
func FromLiteral(lit Literal) (*Net, error) {
	sn := &Net{
		Name:           lit.Name,
		Places:         make(map[petri.Place]struct{}, len(lit.Places)),
		TerminalPlaces: make(map[petri.Place]struct{}, len(lit.TerminalPlaces)),
		FreeTools:      make(map[string]struct{}, len(lit.FreeTools)),
		Transitions:    make(map[string]TransitionMeta, len(lit.Transitions)),
		Net: petri.Net{
			InitialMarking: make(petri.Marking, len(lit.InitialMarking)),
		},
	}
	for _, p := range lit.Places {
		sn.Places[petri.Place(p)] = struct{}{}
	}
	for _, p := range lit.TerminalPlaces {
		sn.TerminalPlaces[petri.Place(p)] = struct{}{}
	}
	for _, t := range lit.FreeTools {
		sn.FreeTools[t] = struct{}{}
	}
	for p, n := range lit.InitialMarking {
		sn.Net.InitialMarking[petri.Place(p)] = n
	}
	for _, tl := range lit.Transitions {
		var typ TransitionType
		switch tl.Type {
		case string(Automatic):
			typ = Automatic
		case string(Manual):
			typ = Manual
		default:
			return nil, &ConfigurationError{Net: lit.Name, Message: fmt.Sprintf("transition %q: unknown type %q", tl.Name, tl.Type)}
		}
		inputs := make([]petri.Place, len(tl.Inputs))
		for i, p := range tl.Inputs {
			inputs[i] = petri.Place(p)
		}
		outputs := make([]petri.Place, len(tl.Outputs))
		for i, p := range tl.Outputs {
			outputs[i] = petri.Place(p)
		}
		sn.Net.Transitions = append(sn.Net.Transitions, petri.Transition{
			Name:    tl.Name,
			Inputs:  inputs,
			Outputs: outputs,
		})
		tools := make(map[string]struct{}, len(tl.Tools))
		for _, name := range tl.Tools {
			tools[name] = struct{}{}
		}
		sn.Transitions[tl.Name] = TransitionMeta{
			Type:     typ,
			Tools:    tools,
			Deferred: tl.Deferred,
		}
	}
	if err := sn.Validate(); err != nil {
		return nil, err
	}
	return sn, nil
}

// MarshalJSON-compatible helpers — thin wrappers so callers don't need to
// know about Literal directly for the common JSON case.

// EncodeJSON renders the net's wire form as JSON.
func (sn *Net) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(sn.ToLiteral(), "", "  ")
}

// DecodeJSON parses a JSON skill-net literal.
func DecodeJSON(data []byte) (*Net, error) {
	var lit Literal
	if err := json.Unmarshal(data, &lit); err != nil {
		return nil, fmt.Errorf("skillnet: decode json: %w", err)
	}
	return FromLiteral(lit)
}
