package gate

import (
	"strings"
	"testing"

	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// requireABeforeB builds the net the rule compiler would emit for
// "require A before B", used directly here to test the gate in isolation
// from the compiler.
func requireABeforeB(t *testing.T) *skillnet.Net {
	t.Helper()
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"ready"}, Outputs: []petri.Place{"gate"}},
			{Name: "do-B", Inputs: []petri.Place{"gate"}, Outputs: []petri.Place{"ready"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "require-backup-before-delete",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{"backup": {}}, Deferred: true},
			"do-B":  {Type: skillnet.Automatic, Tools: map[string]struct{}{"delete": {}}},
		},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return sn
}

func TestGate_BackupBeforeDelete(t *testing.T) {
	sn := requireABeforeB(t)
	s := NewNetState(sn, AutoAdvanceOptions{})

	// delete before any backup is blocked.
	d := s.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "delete"}, Context{})
	if !d.Blocked {
		t.Fatal("expected delete to be blocked before a successful backup")
	}

	// backup is deferred: allowed immediately, but does not fire yet.
	d = s.HandleToolCall(ToolCall{ToolCallID: "2", ToolName: "backup"}, Context{})
	if d.Blocked {
		t.Fatalf("expected backup call itself to be allowed, got blocked: %s", d.Reason)
	}
	if !s.HasPending("2") {
		t.Fatal("expected a pending entry for the deferred backup call")
	}

	// delete is still blocked — backup hasn't resolved yet.
	d = s.HandleToolCall(ToolCall{ToolCallID: "3", ToolName: "delete"}, Context{})
	if !d.Blocked {
		t.Fatal("expected delete to remain blocked before the backup result arrives")
	}

	// backup succeeds.
	s.HandleToolResult(ToolResult{ToolCallID: "2", ToolName: "backup", IsError: false})
	if s.HasPending("2") {
		t.Fatal("pending entry should be cleared after the result")
	}

	// now delete is allowed.
	d = s.HandleToolCall(ToolCall{ToolCallID: "4", ToolName: "delete"}, Context{})
	if d.Blocked {
		t.Fatalf("expected delete to be allowed after a successful backup, got blocked: %s", d.Reason)
	}

	// repeating delete without another backup is blocked again.
	d = s.HandleToolCall(ToolCall{ToolCallID: "5", ToolName: "delete"}, Context{})
	if !d.Blocked || !strings.Contains(d.Reason, "delete") {
		t.Fatalf("expected second delete to be blocked mentioning delete, got %+v", d)
	}
}

func TestGate_DeferredResult_IsErrorNeverFires(t *testing.T) {
	sn := requireABeforeB(t)
	s := NewNetState(sn, AutoAdvanceOptions{})

	s.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "backup"}, Context{})
	s.HandleToolResult(ToolResult{ToolCallID: "1", ToolName: "backup", IsError: true})

	d := s.HandleToolCall(ToolCall{ToolCallID: "2", ToolName: "delete"}, Context{})
	if !d.Blocked {
		t.Fatal("a failed backup must not license delete")
	}
}

func TestGate_UnknownToolCallIDResultIsNoop(t *testing.T) {
	sn := requireABeforeB(t)
	s := NewNetState(sn, AutoAdvanceOptions{})
	// Must not panic and must not alter the marking.
	before := s.Marking()
	s.HandleToolResult(ToolResult{ToolCallID: "ghost", ToolName: "backup"})
	after := s.Marking()
	if !before.Equal(after) {
		t.Fatal("unknown tool_call_id result must be a no-op")
	}
}

func TestGate_NetState_OnUnknownResultFires(t *testing.T) {
	sn := requireABeforeB(t)
	s := NewNetState(sn, AutoAdvanceOptions{})

	var seen *ToolResult
	s.OnUnknownResult = func(event ToolResult) { seen = &event }

	s.HandleToolResult(ToolResult{ToolCallID: "ghost", ToolName: "backup"})
	if seen == nil || seen.ToolCallID != "ghost" {
		t.Fatalf("expected OnUnknownResult to fire for an untracked id, got %+v", seen)
	}
}

func TestGate_FreeToolsAlwaysAllowed(t *testing.T) {
	net := petri.Net{InitialMarking: petri.Marking{"locked": 1}}
	sn := &skillnet.Net{
		Name:        "block-exec",
		Net:         net,
		Places:      skillnet.DeclaredPlaces(net, "locked"),
		FreeTools:   map[string]struct{}{"time": {}},
		Transitions: map[string]skillnet.TransitionMeta{},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s := NewNetState(sn, AutoAdvanceOptions{})
	d := s.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "time"}, Context{})
	if d.Blocked {
		t.Fatal("free tools must always be allowed regardless of marking")
	}
}

func blockRuleNet(t *testing.T) *skillnet.Net {
	t.Helper()
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-exec", Inputs: []petri.Place{"locked"}, Outputs: []petri.Place{"locked"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "block-exec",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net, "locked"),
		Transitions: map[string]skillnet.TransitionMeta{
			"start":   {Type: skillnet.Automatic},
			"do-exec": {Type: skillnet.Automatic, Tools: map[string]struct{}{"exec": {}}},
		},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return sn
}

func TestGate_BlockRule_AlwaysBlocksRegardlessOfHistory(t *testing.T) {
	sn := blockRuleNet(t)
	s := NewNetState(sn, AutoAdvanceOptions{})
	for i := 0; i < 3; i++ {
		d := s.HandleToolCall(ToolCall{ToolCallID: "x", ToolName: "exec"}, Context{})
		if !d.Blocked {
			t.Fatalf("iteration %d: exec should always be blocked (locked is never tokened)", i)
		}
	}
}

func TestGate_HumanApproval(t *testing.T) {
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "approve", Inputs: []petri.Place{"ready"}, Outputs: []petri.Place{"ready"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "require-approval-before-deploy",
		Net:    net,
		Places: skillnet.DeclaredPlaces(net),
		Transitions: map[string]skillnet.TransitionMeta{
			"start":   {Type: skillnet.Automatic},
			"approve": {Type: skillnet.Manual, Tools: map[string]struct{}{"deploy": {}}},
		},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	noUI := NewNetState(sn, AutoAdvanceOptions{})
	d := noUI.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "deploy"}, Context{HasUI: false})
	if !d.Blocked || !strings.Contains(d.Reason, "UI") {
		t.Fatalf("expected UI-confirmation block, got %+v", d)
	}

	approved := NewNetState(sn, AutoAdvanceOptions{})
	d = approved.HandleToolCall(ToolCall{ToolCallID: "2", ToolName: "deploy"}, Context{HasUI: true, Confirm: func(string, string) bool { return true }})
	if d.Blocked {
		t.Fatalf("expected approval to allow deploy, got %+v", d)
	}

	denied := NewNetState(sn, AutoAdvanceOptions{})
	d = denied.HandleToolCall(ToolCall{ToolCallID: "3", ToolName: "deploy"}, Context{HasUI: true, Confirm: func(string, string) bool { return false }})
	if !d.Blocked {
		t.Fatal("expected denial to block deploy")
	}
}

func TestGate_UnknownToolAbstains(t *testing.T) {
	sn := requireABeforeB(t)
	s := NewNetState(sn, AutoAdvanceOptions{})
	d := s.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "unrelated_tool"}, Context{})
	if d.Blocked {
		t.Fatal("a net with no jurisdiction over a tool must abstain (Allow), not block")
	}
}

func TestManager_ANDComposition(t *testing.T) {
	m := NewManager()
	m.AddNet(blockRuleNet(t), AutoAdvanceOptions{})
	m.AddNet(requireABeforeB(t), AutoAdvanceOptions{})

	d := m.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "exec"}, Context{})
	if !d.Blocked || !strings.Contains(d.Reason, "block-exec") {
		t.Fatalf("expected exec blocked by block-exec net, got %+v", d)
	}

	m.HandleToolCall(ToolCall{ToolCallID: "2", ToolName: "backup"}, Context{})
	m.HandleToolResult(ToolResult{ToolCallID: "2", ToolName: "backup"})
	d = m.HandleToolCall(ToolCall{ToolCallID: "3", ToolName: "delete"}, Context{})
	if d.Blocked {
		t.Fatalf("delete should be allowed after backup with both nets active, got %+v", d)
	}
}

func TestManager_RemovedNetStillReceivesResult(t *testing.T) {
	m := NewManager()
	sn := requireABeforeB(t)
	m.AddNet(sn, AutoAdvanceOptions{})

	m.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "backup"}, Context{})
	m.RemoveNet(sn.Name)

	// The result for a pending id recorded before removal must still fire.
	m.HandleToolResult(ToolResult{ToolCallID: "1", ToolName: "backup"})

	state := m.NetState(sn.Name)
	if state == nil {
		t.Fatal("expected the net's state to still be retrievable after removal")
	}
	if state.HasPending("1") {
		t.Fatal("pending entry should have been resolved even though the net was removed")
	}
}

func TestManager_OnUnknownResultFiresWhenNoNetIsTracking(t *testing.T) {
	m := NewManager()
	m.AddNet(requireABeforeB(t), AutoAdvanceOptions{})

	var seen *ToolResult
	m.OnUnknownResult = func(event ToolResult) { seen = &event }

	// No HandleToolCall was ever issued for this id, so no net has a
	// pending entry for it: this is the true "nobody is tracking this"
	// case, distinct from a per-net unknown result.
	m.HandleToolResult(ToolResult{ToolCallID: "ghost", ToolName: "backup"})
	if seen == nil || seen.ToolCallID != "ghost" {
		t.Fatalf("expected Manager.OnUnknownResult to fire, got %+v", seen)
	}
}

func TestManager_OnUnknownResultDoesNotFireWhenANetIsTracking(t *testing.T) {
	m := NewManager()
	m.AddNet(requireABeforeB(t), AutoAdvanceOptions{})

	fired := false
	m.OnUnknownResult = func(event ToolResult) { fired = true }

	m.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "backup"}, Context{})
	m.HandleToolResult(ToolResult{ToolCallID: "1", ToolName: "backup"})
	if fired {
		t.Fatal("OnUnknownResult must not fire for an id a net is actively tracking")
	}
}

func TestManager_ShadowMode_NeverBlocksButStillMutates(t *testing.T) {
	m := NewManager()
	m.Shadow = true
	sn := blockRuleNet(t)
	m.AddNet(sn, AutoAdvanceOptions{})

	var reported []Decision
	m.OnDecision = func(_ ToolCall, d Decision) { reported = append(reported, d) }

	d := m.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "exec"}, Context{})
	if d.Blocked {
		t.Fatal("shadow mode must return Allow even when an underlying net would block")
	}
	if len(reported) != 1 || !reported[0].Blocked {
		t.Fatalf("expected OnDecision to observe the real (blocked) decision, got %+v", reported)
	}
}

func TestManager_EveryNetAbstainsYieldsAllow(t *testing.T) {
	m := NewManager()
	m.AddNet(requireABeforeB(t), AutoAdvanceOptions{})
	d := m.HandleToolCall(ToolCall{ToolCallID: "1", ToolName: "totally_unrelated"}, Context{})
	if d.Blocked {
		t.Fatal("expected Allow when every active net abstains")
	}
}
