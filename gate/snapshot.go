package gate

import (
	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// PendingSnapshot is one entry of a NetState's pending map in the §6
// persistence snapshot shape.
type PendingSnapshot struct {
	ToolCallID     string `json:"tool_call_id" yaml:"tool_call_id"`
	TransitionName string `json:"transition_name" yaml:"transition_name"`
	ResolvedTool   string `json:"resolved_tool" yaml:"resolved_tool"`
}

// NetSnapshot is the §6 persistence shape for one active skill net's state.
type NetSnapshot struct {
	Marking map[string]int    `json:"marking" yaml:"marking"`
	Meta    map[string]any    `json:"meta" yaml:"meta"`
	Pending []PendingSnapshot `json:"pending" yaml:"pending"`
}

// Snapshot serializes s into the §6 persistence shape.
func (s *NetState) Snapshot() NetSnapshot {
	snap := NetSnapshot{
		Marking: make(map[string]int, len(s.marking)),
		Meta:    s.meta,
	}
	for p, n := range s.marking {
		snap.Marking[string(p)] = n
	}
	for id, e := range s.pending {
		snap.Pending = append(snap.Pending, PendingSnapshot{
			ToolCallID:     id,
			TransitionName: e.transitionName,
			ResolvedTool:   e.resolvedTool,
		})
	}
	return snap
}

// RestoreNetState rebuilds a NetState from a snapshot taken against sn.
// Pending entries referencing a transition name that no longer exists on
// sn are discarded per §6 ("entries referencing unknown transitions are
// discarded"). Re-linking is by exact transition-name string match.
func RestoreNetState(sn *skillnet.Net, snap NetSnapshot, opts AutoAdvanceOptions) *NetState {
	s := &NetState{
		net:     sn,
		marking: make(petri.Marking, len(snap.Marking)),
		pending: make(map[string]pendingEntry),
		meta:    make(map[string]any, len(snap.Meta)),
		opts:    opts,
	}
	for p, n := range snap.Marking {
		s.marking[petri.Place(p)] = n
	}
	for k, v := range snap.Meta {
		s.meta[k] = v
	}
	for _, pe := range snap.Pending {
		if _, ok := sn.Net.TransitionByName(pe.TransitionName); !ok {
			continue // unknown transition — discard per §6
		}
		s.pending[pe.ToolCallID] = pendingEntry{transitionName: pe.TransitionName, resolvedTool: pe.ResolvedTool}
	}
	return s
}
