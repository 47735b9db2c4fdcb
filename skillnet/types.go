// Package skillnet wraps the petri kernel with the gating metadata a gate
// needs to decide which tool calls a net licenses: per-transition kind
// (structural / gated-auto / gated-manual), the tool names a transition
// licenses, whether its firing is deferred until a tool result arrives,
// and optional per-net hooks for tool-name resolution and validation.
package skillnet

import (
	"github.com/petrigate/petrigate/petri"
)

// TransitionType is the author-declared kind of a transition: whether it
// fires automatically (no human involved) or requires a manual
// confirmation before it may license a tool call.
type TransitionType string

const (
	Automatic TransitionType = "automatic"
	Manual    TransitionType = "manual"
)

// TransitionMeta is the gating metadata attached to one petri.Transition.
// A transition with an empty Tools set and Type Automatic is "structural":
// it never licenses a tool call and is fired silently by the auto-advancer.
type TransitionMeta struct {
	Type     TransitionType
	Tools    map[string]struct{} // tool names this transition licenses; nil/empty = none
	Deferred bool                // if true, firing is postponed until a matching ToolResult
}

// Kind classifies a transition into the three disjoint categories used
// throughout the gate: Structural, GatedAuto, GatedManual.
type Kind int

const (
	Structural Kind = iota
	GatedAuto
	GatedManual
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case GatedAuto:
		return "gated-auto"
	case GatedManual:
		return "gated-manual"
	default:
		return "unknown"
	}
}

// Classify returns meta's Kind per §4.2:
//
//	automatic ∧ tools empty   → Structural
//	automatic ∧ tools nonempty → GatedAuto
//	manual                     → GatedManual
func Classify(meta TransitionMeta) Kind {
	if meta.Type == Manual {
		return GatedManual
	}
	if len(meta.Tools) == 0 {
		return Structural
	}
	return GatedAuto
}

// Licenses reports whether meta's transition licenses the given tool name.
func (meta TransitionMeta) Licenses(tool string) bool {
	_, ok := meta.Tools[tool]
	return ok
}

// ToolMapperFunc resolves an incoming event to the "virtual" tool name used
// for gating. Returning the event's raw ToolName unchanged is the default
// (no mapper configured).
type ToolMapperFunc func(event Event) string

// ValidateFunc runs after a candidate transition has been chosen but before
// it is allowed to fire/defer. Returning a non-nil *Block short-circuits
// the call. state is the net's current marking, supplied read-only for
// hooks that want to reference it in a block reason.
type ValidateFunc func(event Event, resolvedTool string, transitionName string, state petri.Marking) *Block

// DeferredResultFunc runs after a deferred transition fires successfully
// (i.e. on a non-error ToolResult, once the transition is confirmed still
// enabled). It may mutate the supplied meta map directly — the kernel never
// inspects Meta itself.
type DeferredResultFunc func(event ResultEvent, resolvedTool string, transitionName string, state petri.Marking, meta map[string]any)

// Block is the structured reason a hook or the gate itself returns to deny
// a tool call. A nil *Block means "no objection".
type Block struct {
	Reason string
}

// Event is the call-time shape a skill net's hooks see. It mirrors
// gate.ToolCall field-for-field; skillnet does not import gate to avoid a
// dependency cycle (gate imports skillnet), so the two types are kept in
// sync by convention and gate.ToolCall converts to this type at the call
// site.
type Event struct {
	ToolCallID string
	ToolName   string
	Input      map[string]any
}

// ResultEvent mirrors gate.ToolResult for the same reason.
type ResultEvent struct {
	ToolCallID string
	ToolName   string
	Input      map[string]any
	IsError    bool
}

// Net is a petri.Net plus the gating metadata and hooks a gate needs.
// Immutable once constructed — Validate should be called once at
// construction time and the result treated as read-only afterward.
type Net struct {
	Name string

	Net petri.Net

	// Places is the authoritative declared place set, used for validation
	// (every place named by a transition or the initial marking, or named
	// in TerminalPlaces, must be a member).
	Places map[petri.Place]struct{}

	TerminalPlaces map[petri.Place]struct{}

	// FreeTools bypass gating entirely for this net: HandleToolCall always
	// returns Allow for them without consulting any transition.
	FreeTools map[string]struct{}

	// Transitions, keyed by transition name, holding the gating metadata
	// for each petri.Transition declared in Net.Transitions. Every
	// transition in Net.Transitions must have an entry here.
	Transitions map[string]TransitionMeta

	// Hooks, all optional.
	ToolMapper        ToolMapperFunc
	ValidateToolCall   ValidateFunc
	OnDeferredResult   DeferredResultFunc
}

// TransitionMetaFor returns the gating metadata for the named transition.
// Panics if name is not declared — callers only ever invoke this with
// names drawn from Net.Net.Transitions, which Validate has already checked
// against Transitions.
func (sn *Net) TransitionMetaFor(name string) TransitionMeta {
	meta, ok := sn.Transitions[name]
	if !ok {
		panic("skillnet: no gating metadata for transition " + name)
	}
	return meta
}

// KindOf returns the Kind of the named transition.
func (sn *Net) KindOf(name string) Kind {
	return Classify(sn.TransitionMetaFor(name))
}
