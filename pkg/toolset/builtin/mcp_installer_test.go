package builtin_test

import (
	"context"
	"strings"
	"testing"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/toolset/builtin"
)

func TestMCPInstallerTool_InstallsThenReportsAlreadyInstalled(t *testing.T) {
	tool := builtin.NewMCPInstallerTool()
	ctx := context.Background()

	first, err := tool.Run(ctx, map[string]any{"server_name": "mcp-server-fetch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != result.StatusSuccess {
		t.Fatalf("first install: got %+v", first)
	}

	second, err := tool.Run(ctx, map[string]any{"server_name": "mcp-server-fetch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Status != result.StatusSuccess {
		t.Fatalf("second install: got %+v", second)
	}
	payload, _ := second.Structured.(map[string]any)
	if msg, _ := payload["message"].(string); !strings.Contains(msg, "already installed") {
		t.Fatalf("second install message = %q, want it to report already installed", msg)
	}
}

func TestMCPInstallerTool_MissingServerName(t *testing.T) {
	tool := builtin.NewMCPInstallerTool()

	res, err := tool.Run(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != result.StatusError || res.ErrorKind != result.KindInvalidArgument {
		t.Fatalf("got %+v, want invalid-argument error", res)
	}
}

func TestMCPInstallerTool_Reset(t *testing.T) {
	tool := builtin.NewMCPInstallerTool()
	ctx := context.Background()

	if _, err := tool.Run(ctx, map[string]any{"server_name": "pkgx"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tool.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
}
