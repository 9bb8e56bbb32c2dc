package builtin_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/toolset/builtin"
)

func TestBashTool_RunsAndCapturesOutput(t *testing.T) {
	tool := builtin.NewBashTool("", 5*time.Second)

	res, err := tool.Run(context.Background(), map[string]any{"command": "echo hello"})
	if err != nil {
		t.Fatalf("unexpected invocation error: %v", err)
	}
	if res.Status != result.StatusSuccess {
		t.Fatalf("status = %v, want success; message=%s content=%s", res.Status, res.Message, res.Content)
	}
	if strings.TrimSpace(res.Content) != "hello" {
		t.Fatalf("content = %q, want %q", res.Content, "hello")
	}
}

func TestBashTool_MissingCommand(t *testing.T) {
	tool := builtin.NewBashTool("", 0)

	res, err := tool.Run(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected invocation error: %v", err)
	}
	if res.Status != result.StatusError || res.ErrorKind != result.KindInvalidArgument {
		t.Fatalf("got %+v, want invalid-argument error", res)
	}
}

func TestBashTool_BlocksDangerousCommand(t *testing.T) {
	tool := builtin.NewBashTool("", 0)

	res, err := tool.Run(context.Background(), map[string]any{"command": "rm -rf /"})
	if err != nil {
		t.Fatalf("unexpected invocation error: %v", err)
	}
	if res.Status != result.StatusError || res.ErrorKind != result.KindPolicyBlocked {
		t.Fatalf("got %+v, want policy-blocked error", res)
	}
}

func TestBashTool_NonZeroExit(t *testing.T) {
	tool := builtin.NewBashTool("", 5*time.Second)

	res, err := tool.Run(context.Background(), map[string]any{"command": "exit 7"})
	if err != nil {
		t.Fatalf("unexpected invocation error: %v", err)
	}
	if res.Status != result.StatusError || res.ErrorKind != result.KindExecution {
		t.Fatalf("got %+v, want execution error", res)
	}
}
