// Package openailoop runs a minimal OpenAI function-calling loop in which
// every tool call the model requests is routed through a gate.Manager
// before the caller's executor is invoked.
package openailoop

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	openailib "github.com/sashabaranov/go-openai"

	"github.com/petrigate/petrigate/gate"
	"github.com/petrigate/petrigate/internal/util"
	"github.com/petrigate/petrigate/pkg/config"
)

// maxBlockReasonRunes caps how much of a block reason (which can embed a
// full marking map) is surfaced back to the model as tool-result text.
const maxBlockReasonRunes = 300

// ToolExecutor runs a single tool call after the gate has allowed it.
type ToolExecutor func(ctx context.Context, name string, args map[string]any) (string, error)

// Loop drives messages through client with tools available for function
// calling, gating every requested tool call through manager, until the
// model returns a plain text answer or config.MaxLoopSteps round-trips
// elapse.
//
// gctx is forwarded to the gate for every call in this loop (UI
// availability / confirmation callback).
func Loop(ctx context.Context, client *openailib.Client, model string, messages []openailib.ChatCompletionMessage, tools []openailib.Tool, manager *gate.Manager, exec ToolExecutor, gctx gate.Context) (string, error) {
	for step := 0; step < config.MaxLoopSteps; step++ {
		resp, err := client.CreateChatCompletion(ctx, openailib.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("openailoop: chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openailoop: no choices returned")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			result := runGatedToolCall(ctx, manager, exec, gctx, tc)
			messages = append(messages, openailib.ChatCompletionMessage{
				Role:       openailib.ChatMessageRoleTool,
				ToolCallID: tc.ID,
				Content:    result,
			})
		}
	}
	return "", fmt.Errorf("openailoop: exceeded %d steps without a final answer", config.MaxLoopSteps)
}

// runGatedToolCall resolves one model tool call through the gate, executes
// it on allow, and reports the outcome back to the gate. It never returns
// an error — a blocked or failing call becomes tool-result text the model
// can react to, matching how the underlying API expects tool responses.
func runGatedToolCall(ctx context.Context, manager *gate.Manager, exec ToolExecutor, gctx gate.Context, tc openailib.ToolCall) string {
	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			log.Printf("[OpenAILoop] tool call %q: malformed arguments: %v", tc.Function.Name, err)
			args = map[string]any{}
		}
	}

	decision := manager.HandleToolCall(gate.ToolCall{
		ToolCallID: tc.ID,
		ToolName:   tc.Function.Name,
		Input:      args,
	}, gctx)
	if decision.Blocked {
		return fmt.Sprintf("blocked: %s", util.TruncateRunes(decision.Reason, maxBlockReasonRunes))
	}

	out, err := exec(ctx, tc.Function.Name, args)
	manager.HandleToolResult(gate.ToolResult{
		ToolCallID: tc.ID,
		ToolName:   tc.Function.Name,
		IsError:    err != nil,
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}
