package gate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/petrigate/petrigate/skillnet"
)

// Manager fans a ToolCall/ToolResult out to many skill-net states, per
// §4.5. It holds an ordered "active" list (every active net is consulted
// on every call, AND-composition: any block wins) plus an optional
// "registry" of additional, currently inactive nets that can be swapped in
// without losing their accumulated state.
//
// Not safe for concurrent use without external synchronization — per §5
// the gate is not re-entrant; callers must serialize operations for the
// same manager.
type Manager struct {
	mu sync.Mutex // guards the maps below; does not make the manager re-entrant, only crash-safe

	active   []string // net names, in the order they were added
	states   map[string]*NetState
	registry map[string]*NetState // inactive nets, state preserved across add/remove

	Shadow bool

	// OnDecision, if set, is invoked with every decision a net would have
	// made, even while Shadow is true (in which case the returned overall
	// decision is forced to Allow regardless of what nets reported).
	OnDecision func(event ToolCall, decision Decision)

	// OnUnknownResult, if set, is invoked when HandleToolResult receives an
	// event for a tool_call_id that no active or registered net is
	// tracking — the case a caller is most likely to want to observe,
	// since it usually means a result arrived twice or after its session
	// was torn down. Diagnostics only; never affects the decision path.
	OnUnknownResult func(event ToolResult)
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		states:   make(map[string]*NetState),
		registry: make(map[string]*NetState),
	}
}

// AddNet activates a skill net. If the net was previously registered
// (inactive), its preserved state is reused; otherwise a fresh NetState is
// created from sn.
func (m *Manager) AddNet(sn *skillnet.Net, opts AutoAdvanceOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, alreadyActive := m.states[sn.Name]; alreadyActive {
		return
	}
	state, wasRegistered := m.registry[sn.Name]
	if !wasRegistered {
		state = NewNetState(sn, opts)
	} else {
		delete(m.registry, sn.Name)
	}
	m.states[sn.Name] = state
	m.active = append(m.active, sn.Name)
}

// RemoveNet deactivates a net by name, moving it to the inactive registry
// with its state (marking, pending, meta) preserved so a later AddNet
// resumes cleanly. Pending entries recorded before removal remain
// resolvable by HandleToolResult (§4.5 "pending entries outlive removal").
func (m *Manager) RemoveNet(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[name]
	if !ok {
		return
	}
	delete(m.states, name)
	m.registry[name] = state
	for i, n := range m.active {
		if n == name {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
}

// ActiveNets returns the names of currently active nets, in order.
func (m *Manager) ActiveNets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.active))
	copy(out, m.active)
	return out
}

// NetState returns the live state for a net by name, whether active or
// only registered, or nil if no such net is known to this manager. Useful
// for snapshotting and tests.
func (m *Manager) NetState(name string) *NetState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[name]; ok {
		return s
	}
	return m.registry[name]
}

// HandleToolCall fans event out to every active net, in declaration order,
// per §4.5: any block wins, with the reason prefixed by the blocking net's
// name; abstentions are ignored; if every active net abstains the overall
// decision is Allow. In shadow mode, a would-be block is still reported
// via OnDecision but the returned decision is forced to Allow — the full
// decision pipeline still runs and still mutates state, only the returned
// verdict is overridden.
func (m *Manager) HandleToolCall(event ToolCall, ctx Context) Decision {
	m.mu.Lock()
	active := make([]string, len(m.active))
	copy(active, m.active)
	m.mu.Unlock()

	var blocked *Decision
	for _, name := range active {
		m.mu.Lock()
		state := m.states[name]
		m.mu.Unlock()
		if state == nil {
			continue
		}
		d := state.HandleToolCall(event, ctx)
		if m.OnDecision != nil {
			m.OnDecision(event, d)
		}
		if d.Blocked && blocked == nil {
			prefixed := Block(fmt.Sprintf("%s: %s", name, d.Reason))
			blocked = &prefixed
		}
	}

	if m.Shadow {
		return Allow
	}
	if blocked != nil {
		return *blocked
	}
	return Allow
}

// HandleToolResult fans event out to every net holding a pending entry for
// event.ToolCallID, including nets that have been removed from the active
// set since the call was recorded (§4.5).
func (m *Manager) HandleToolResult(event ToolResult) {
	m.mu.Lock()
	var targets []*NetState
	for _, s := range m.states {
		if s.HasPending(event.ToolCallID) {
			targets = append(targets, s)
		}
	}
	for _, s := range m.registry {
		if s.HasPending(event.ToolCallID) {
			targets = append(targets, s)
		}
	}
	m.mu.Unlock()

	if len(targets) == 0 {
		if m.OnUnknownResult != nil {
			m.OnUnknownResult(event)
		}
		return
	}

	for _, s := range targets {
		s.HandleToolResult(event)
	}
}

// FormatStatus renders a human-readable digest of every active net's
// current marking and pending count. Bit-level layout is not a contract
// (§4.5) — this is display only, used by external adapters.
func (m *Manager) FormatStatus() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) == 0 {
		return "no active skill nets"
	}
	var sb strings.Builder
	for _, name := range m.active {
		s := m.states[name]
		sb.WriteString(fmt.Sprintf("%s: marking=%v pending=%d\n", name, s.Marking(), s.PendingCount()))
	}
	return sb.String()
}

// FormatSystemPrompt renders a prompt-injectable summary of each active
// net's name and jurisdiction, for agent-framework adapters to surface to
// a model.
func (m *Manager) FormatSystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) == 0 {
		return "No structural safety nets are currently active."
	}
	var sb strings.Builder
	sb.WriteString("The following structural safety nets constrain tool use:\n")
	for _, name := range m.active {
		s := m.states[name]
		var tools []string
		seen := make(map[string]struct{})
		for _, t := range s.net.Net.Transitions {
			meta := s.net.TransitionMetaFor(t.Name)
			for tool := range meta.Tools {
				if _, ok := seen[tool]; !ok {
					seen[tool] = struct{}{}
					tools = append(tools, tool)
				}
			}
		}
		sb.WriteString(fmt.Sprintf("- %s (governs: %s)\n", name, strings.Join(tools, ", ")))
	}
	return sb.String()
}
