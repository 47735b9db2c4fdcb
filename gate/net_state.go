package gate

import (
	"fmt"

	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// pendingEntry records a deferred transition awaiting its tool's result.
type pendingEntry struct {
	transitionName string
	resolvedTool   string
}

// NetState is the per-session gate state for a single skill net: its
// current marking, the pending deferred-firing map, and a free-form meta
// map for hooks. It is created once per session (from a skill net) and
// lives until the session ends.
type NetState struct {
	net     *skillnet.Net
	marking petri.Marking
	pending map[string]pendingEntry
	meta    map[string]any

	opts AutoAdvanceOptions

	// OnUnknownResult, if set, is invoked when HandleToolResult receives an
	// event for a tool_call_id this net is not tracking. Diagnostics only —
	// never affects the decision path (§9).
	OnUnknownResult func(event ToolResult)
}

// NewNetState creates a gate state from a skill net: marking is the
// auto-advanced initial marking, pending and meta start empty.
func NewNetState(sn *skillnet.Net, opts AutoAdvanceOptions) *NetState {
	return &NetState{
		net:     sn,
		marking: Advance(sn, sn.Net.InitialMarking, opts),
		pending: make(map[string]pendingEntry),
		meta:    make(map[string]any),
		opts:    opts,
	}
}

// Net returns the underlying skill net.
func (s *NetState) Net() *skillnet.Net { return s.net }

// Marking returns a copy of the current marking.
func (s *NetState) Marking() petri.Marking { return s.marking.Clone() }

// Meta returns the net's free-form hook bookkeeping map, for hooks that
// want to read or mutate it directly.
func (s *NetState) Meta() map[string]any { return s.meta }

// PendingCount returns the number of tool calls awaiting a result.
func (s *NetState) PendingCount() int { return len(s.pending) }

// HasPending reports whether a pending entry exists for the given
// tool_call_id.
func (s *NetState) HasPending(toolCallID string) bool {
	_, ok := s.pending[toolCallID]
	return ok
}

// InjectToken adds n tokens (may be negative) to place p, outside of any
// transition firing. Used for test setup and administrative overrides.
// Returns ErrUnknownPlace if p is not declared by the net.
func (s *NetState) InjectToken(p petri.Place, n int) error {
	if _, ok := s.net.Places[p]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlace, p)
	}
	s.marking[p] += n
	if s.marking[p] < 0 {
		s.marking[p] = 0
	}
	return nil
}

func toSkillEvent(c ToolCall) skillnet.Event {
	return skillnet.Event{ToolCallID: c.ToolCallID, ToolName: c.ToolName, Input: c.Input}
}

func toSkillResultEvent(r ToolResult) skillnet.ResultEvent {
	return skillnet.ResultEvent{ToolCallID: r.ToolCallID, ToolName: r.ToolName, Input: r.Input, IsError: r.IsError}
}

// resolveTool applies the net's ToolMapper hook, if any.
func (s *NetState) resolveTool(c ToolCall) (string, error) {
	if s.net.ToolMapper == nil {
		return c.ToolName, nil
	}
	return s.net.ToolMapper(toSkillEvent(c)), nil
}

// candidateTransitions returns the gated transitions (gated-auto or
// gated-manual) whose Tools set contains resolvedTool, in declaration
// order.
func (s *NetState) candidateTransitions(resolvedTool string) []petri.Transition {
	var out []petri.Transition
	for _, t := range s.net.Net.Transitions {
		meta := s.net.TransitionMetaFor(t.Name)
		kind := skillnet.Classify(meta)
		if kind == skillnet.Structural {
			continue
		}
		if meta.Licenses(resolvedTool) {
			out = append(out, t)
		}
	}
	return out
}

// HandleToolCall implements §4.4's handle_tool_call algorithm against this
// one net.
func (s *NetState) HandleToolCall(c ToolCall, ctx Context) Decision {
	resolvedTool, err := s.safeResolveTool(c)
	if err != nil {
		return Block(err.Error())
	}

	if _, free := s.net.FreeTools[resolvedTool]; free {
		return Allow
	}

	candidates := s.candidateTransitions(resolvedTool)
	if len(candidates) == 0 {
		return Allow // abstain — no jurisdiction over this tool
	}

	var enabledCandidates []petri.Transition
	for _, t := range candidates {
		if petri.CanFire(s.marking, t) {
			enabledCandidates = append(enabledCandidates, t)
		}
	}
	if len(enabledCandidates) == 0 {
		return Block(fmt.Sprintf("no enabled transition licenses %q in net %q; current marking %v", resolvedTool, s.net.Name, s.marking))
	}

	var chosen *petri.Transition
	for i := range enabledCandidates {
		t := enabledCandidates[i]
		if s.net.KindOf(t.Name) == skillnet.GatedAuto {
			chosen = &t
			break
		}
	}
	if chosen == nil {
		for i := range enabledCandidates {
			t := enabledCandidates[i]
			if s.net.KindOf(t.Name) != skillnet.GatedManual {
				continue
			}
			if !ctx.HasUI {
				return Block(fmt.Sprintf("%q requires UI confirmation", resolvedTool))
			}
			title := fmt.Sprintf("Confirm %s", resolvedTool)
			message := fmt.Sprintf("Allow tool call %q (transition %q in net %q)?", resolvedTool, t.Name, s.net.Name)
			if ctx.Confirm == nil || !ctx.Confirm(title, message) {
				return Block(fmt.Sprintf("operator denied %q", resolvedTool))
			}
			chosen = &t
			break
		}
	}
	if chosen == nil {
		return Block(fmt.Sprintf("no enabled transition licenses %q in net %q; current marking %v", resolvedTool, s.net.Name, s.marking))
	}

	if s.net.ValidateToolCall != nil {
		block, err := s.safeValidate(c, resolvedTool, chosen.Name)
		if err != nil {
			return Block(err.Error())
		}
		if block != nil {
			return Block(block.Reason)
		}
	}

	meta := s.net.TransitionMetaFor(chosen.Name)
	if meta.Deferred {
		s.pending[c.ToolCallID] = pendingEntry{transitionName: chosen.Name, resolvedTool: resolvedTool}
		return Allow
	}

	next, err := petri.Fire(s.marking, *chosen)
	if err != nil {
		// chosen was confirmed enabled above; this would be a kernel bug.
		return Block(fmt.Sprintf("internal error firing %q: %v", chosen.Name, err))
	}
	s.marking = Advance(s.net, next, s.opts)
	return Allow
}

// HandleToolResult implements §4.4's handle_tool_result algorithm.
func (s *NetState) HandleToolResult(r ToolResult) {
	entry, ok := s.pending[r.ToolCallID]
	if !ok {
		if s.OnUnknownResult != nil {
			s.OnUnknownResult(r)
		}
		return
	}
	delete(s.pending, r.ToolCallID)

	if r.IsError {
		return // discard without firing; marking unchanged
	}

	t, ok := s.net.Net.TransitionByName(entry.transitionName)
	if !ok {
		return // transition vanished (should not happen for a live net)
	}
	if !petri.CanFire(s.marking, t) {
		return // tokens consumed by a concurrent path; drop silently, no hook
	}

	next, err := petri.Fire(s.marking, t)
	if err != nil {
		return
	}
	s.marking = next

	if s.net.OnDeferredResult != nil {
		s.safeOnDeferredResult(r, entry.resolvedTool, entry.transitionName)
	}

	s.marking = Advance(s.net, s.marking, s.opts)
}

// safeResolveTool recovers a panic from ToolMapper and turns it into a
// HookError, per §7's HookError semantics.
func (s *NetState) safeResolveTool(c ToolCall) (tool string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Net: s.net.Name, Err: fmt.Errorf("%v", r)}
		}
	}()
	return s.resolveTool(c)
}

func (s *NetState) safeValidate(c ToolCall, resolvedTool, transitionName string) (block *skillnet.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Net: s.net.Name, Err: fmt.Errorf("%v", r)}
		}
	}()
	block = s.net.ValidateToolCall(toSkillEvent(c), resolvedTool, transitionName, s.marking)
	return block, nil
}

func (s *NetState) safeOnDeferredResult(r ToolResult, resolvedTool, transitionName string) {
	defer func() {
		if rec := recover(); rec != nil {
			// A panicking OnDeferredResult cannot un-fire the transition it
			// already confirmed enabled (the firing already committed per
			// §4.4 step 4) — log-equivalent behavior is left to the caller
			// via the net's own error handling; we simply stop propagating.
			_ = rec
		}
	}()
	s.net.OnDeferredResult(toSkillResultEvent(r), resolvedTool, transitionName, s.marking, s.meta)
}

// DOT renders this gate state's current marking.
func (s *NetState) DOT() string {
	return petri.DOT(s.net.Net, s.marking)
}
