package builtin

import (
	"context"
	"log/slog"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// TerminateTool signals the agent loop to stop and return a final
// answer, adapted from original_source/app/tool/terminate.py.
type TerminateTool struct {
	tool.Base
	log *slog.Logger
}

// NewTerminateTool constructs a TerminateTool that logs the
// termination reason via log (nil disables logging).
func NewTerminateTool(log *slog.Logger) *TerminateTool {
	return &TerminateTool{log: log}
}

func (t *TerminateTool) Name() string { return "terminate" }

func (t *TerminateTool) Description() string {
	return "Terminate the current agent run and return a final answer. " +
		"Call this once you have completed the task or have a final response to give."
}

func (t *TerminateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Final message or result to return",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Reason for termination, for logging",
			},
		},
		"required": []any{"message"},
	}
}

func (t *TerminateTool) Run(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	message, _ := args["message"].(string)
	if message == "" {
		message = "Task completed."
	}
	reason, _ := args["reason"].(string)
	if reason == "" {
		reason = "Task completed successfully."
	}

	if t.log != nil {
		t.log.InfoContext(ctx, "agent termination requested", "reason", reason)
	}

	return result.Terminate(message), nil
}
