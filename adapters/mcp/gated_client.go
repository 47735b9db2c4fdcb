// Package mcp adapts an MCP tool connection so every call passes through
// a gate.Manager before reaching the server, and every result is reported
// back so deferred transitions (e.g. "require backup before delete") can
// fire. It wraps internal/mcp.Client rather than reimplementing MCP
// transport.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/petrigate/petrigate/gate"
	internalmcp "github.com/petrigate/petrigate/internal/mcp"
)

// toolCaller is the subset of internal/mcp.Client that GatedClient needs.
// A narrow interface so tests can substitute a fake server without
// spawning a real MCP process.
type toolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// GatedClient wraps an internal/mcp.Client so CallTool is intercepted by a
// gate.Manager: blocked calls never reach the server, and every outcome
// (success or server-side error) is reported back to the manager so
// deferred transitions resolve correctly.
type GatedClient struct {
	inner   toolCaller
	manager *gate.Manager
}

// NewGatedClient wraps client with manager. client must already be
// connected (Connect called) — GatedClient does not manage connection
// lifecycle.
func NewGatedClient(client *internalmcp.Client, manager *gate.Manager) *GatedClient {
	return &GatedClient{inner: client, manager: manager}
}

// newGatedClientWithCaller builds a GatedClient around any toolCaller,
// for tests that substitute a fake server.
func newGatedClientWithCaller(caller toolCaller, manager *gate.Manager) *GatedClient {
	return &GatedClient{inner: caller, manager: manager}
}

// CallTool runs name through the gate before invoking the underlying MCP
// tool. If the gate blocks the call, the MCP server is never contacted and
// the returned error describes the block reason. ctx carries the gate
// decision context (UI availability / confirmation callback) via
// WithGateContext; a call made without one behaves as a headless caller
// (HasUI=false).
func (g *GatedClient) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	callID := uuid.NewString()
	gctx := gateContextFrom(ctx)

	decision := g.manager.HandleToolCall(gate.ToolCall{
		ToolCallID: callID,
		ToolName:   name,
		Input:      args,
	}, gctx)
	if decision.Blocked {
		return "", fmt.Errorf("mcp: tool call %q blocked: %s", name, decision.Reason)
	}

	text, err := g.inner.CallTool(ctx, name, args)
	g.manager.HandleToolResult(gate.ToolResult{
		ToolCallID: callID,
		ToolName:   name,
		IsError:    err != nil,
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close releases the underlying connection.
func (g *GatedClient) Close() error {
	return g.inner.Close()
}

type gateContextKey struct{}

// WithGateContext attaches a gate.Context (UI availability, confirmation
// callback) to ctx so CallTool can surface manual-approval prompts.
func WithGateContext(ctx context.Context, gctx gate.Context) context.Context {
	return context.WithValue(ctx, gateContextKey{}, gctx)
}

func gateContextFrom(ctx context.Context) gate.Context {
	if gctx, ok := ctx.Value(gateContextKey{}).(gate.Context); ok {
		return gctx
	}
	return gate.Context{}
}
