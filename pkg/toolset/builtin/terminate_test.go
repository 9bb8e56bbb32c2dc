package builtin_test

import (
	"context"
	"testing"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/toolset/builtin"
)

func TestTerminateTool_DefaultsMessage(t *testing.T) {
	tool := builtin.NewTerminateTool(nil)

	res, err := tool.Run(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsTerminal() {
		t.Fatalf("expected terminal result, got %+v", res)
	}
	if res.Content != "Task completed." {
		t.Fatalf("content = %q, want default message", res.Content)
	}
}

func TestTerminateTool_CustomMessage(t *testing.T) {
	tool := builtin.NewTerminateTool(nil)

	res, err := tool.Run(context.Background(), map[string]any{
		"message": "all done",
		"reason":  "user asked to stop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != result.StatusTerminate {
		t.Fatalf("status = %v, want terminate", res.Status)
	}
	if res.Content != "all done" {
		t.Fatalf("content = %q, want %q", res.Content, "all done")
	}
}
