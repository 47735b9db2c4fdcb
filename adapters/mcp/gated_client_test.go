package mcp

import (
	"context"
	"testing"

	"github.com/petrigate/petrigate/gate"
	"github.com/petrigate/petrigate/petri"
	"github.com/petrigate/petrigate/skillnet"
)

// fakeServer is a toolCaller that never touches the network, recording
// every call it actually receives.
type fakeServer struct {
	calls []string
	err   error
}

func (f *fakeServer) CallTool(_ context.Context, name string, _ map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", f.err
	}
	return "ok:" + name, nil
}

func (f *fakeServer) Close() error { return nil }

func blockToolNet(t *testing.T, tool string) *skillnet.Net {
	t.Helper()
	net := petri.Net{
		InitialMarking: petri.Marking{"idle": 1},
		Transitions: []petri.Transition{
			{Name: "start", Inputs: []petri.Place{"idle"}, Outputs: []petri.Place{"ready"}},
			{Name: "do-A", Inputs: []petri.Place{"locked"}, Outputs: []petri.Place{"locked"}},
		},
	}
	sn := &skillnet.Net{
		Name:   "block-" + tool,
		Net:    net,
		Places: skillnet.DeclaredPlaces(net, "locked"),
		Transitions: map[string]skillnet.TransitionMeta{
			"start": {Type: skillnet.Automatic},
			"do-A":  {Type: skillnet.Automatic, Tools: map[string]struct{}{tool: {}}},
		},
	}
	if err := sn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return sn
}

func TestGatedClient_BlockedCallNeverReachesServer(t *testing.T) {
	m := gate.NewManager()
	m.AddNet(blockToolNet(t, "rm"), gate.AutoAdvanceOptions{})

	srv := &fakeServer{}
	gc := newGatedClientWithCaller(srv, m)

	_, err := gc.CallTool(context.Background(), "rm", nil)
	if err == nil {
		t.Fatal("expected the gated call to be blocked")
	}
	if len(srv.calls) != 0 {
		t.Fatalf("expected the server to never be contacted, got calls: %v", srv.calls)
	}
}

func TestGatedClient_AllowedCallReachesServerAndReportsResult(t *testing.T) {
	m := gate.NewManager() // no nets active: every tool is un-gated (abstain → allow)
	srv := &fakeServer{}
	gc := newGatedClientWithCaller(srv, m)

	out, err := gc.CallTool(context.Background(), "search", map[string]any{"q": "x"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != "ok:search" {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(srv.calls) != 1 || srv.calls[0] != "search" {
		t.Fatalf("expected exactly one call to the underlying server, got %v", srv.calls)
	}
}

func TestGatedClient_ServerErrorIsReportedToGate(t *testing.T) {
	// "search" is outside this net's jurisdiction, so no net tracks the call
	// and the reported result reaches the manager's OnUnknownResult.
	sn := blockToolNet(t, "placeholder")
	m := gate.NewManager()
	m.AddNet(sn, gate.AutoAdvanceOptions{})

	var reported *gate.ToolResult
	m.OnUnknownResult = func(event gate.ToolResult) { reported = &event }

	srv := &fakeServer{err: context.DeadlineExceeded}
	gc := newGatedClientWithCaller(srv, m)

	_, err := gc.CallTool(context.Background(), "search", nil)
	if err == nil {
		t.Fatal("expected the underlying server error to propagate")
	}
	if reported == nil || !reported.IsError {
		t.Fatalf("expected the failed call to be reported to the gate with IsError=true, got %+v", reported)
	}
}

func TestGateContext_DefaultsToHeadless(t *testing.T) {
	gctx := gateContextFrom(context.Background())
	if gctx.HasUI {
		t.Fatal("expected a bare context to resolve to a headless gate.Context")
	}
}

func TestGateContext_RoundTrip(t *testing.T) {
	want := gate.Context{HasUI: true}
	ctx := WithGateContext(context.Background(), want)
	got := gateContextFrom(ctx)
	if got.HasUI != want.HasUI {
		t.Fatalf("expected gate context to round-trip, got %+v", got)
	}
}
