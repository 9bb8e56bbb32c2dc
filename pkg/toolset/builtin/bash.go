// Package builtin implements the tools the agent registers by default:
// a shell tool, the terminate signal, a web-search stub, and the MCP
// server installer, adapted from kadirpekel-hector's pkg/tools shell
// executor and grounded on original_source/app/tool for the
// agentradis-specific tools it doesn't have an equivalent for.
package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
	"github.com/agentcore-dev/agentcore/pkg/toolset"
)

// BashTool runs a shell command through sh -c, after checking it
// against the deny-list safety gate. Never cacheable: arbitrary shell
// commands have observable side effects.
type BashTool struct {
	tool.Base
	workingDir string
	timeout    time.Duration
}

// NewBashTool constructs a BashTool rooted at workingDir (empty means
// the process's current directory) with the given per-call timeout
// (0 uses the invocation layer's default).
func NewBashTool(workingDir string, timeout time.Duration) *BashTool {
	return &BashTool{workingDir: workingDir, timeout: timeout}
}

func (t *BashTool) Name() string { return "bash" }

func (t *BashTool) Description() string {
	return "Execute a shell command and return its combined stdout/stderr output."
}

func (t *BashTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to execute",
			},
		},
		"required": []any{"command"},
	}
}

func (t *BashTool) TimeoutOverride() time.Duration { return t.timeout }

func (t *BashTool) Run(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return result.Err(result.KindInvalidArgument, "command must be a non-empty string"), nil
	}

	if reason, blocked := toolset.CheckCommandSafety(command); blocked {
		return result.Err(result.KindPolicyBlocked, reason), nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if t.workingDir != "" {
		cmd.Dir = t.workingDir
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	meta := result.Meta{Command: command, ExecutionTime: elapsed}
	if cmd.Process != nil {
		meta.PID = cmd.Process.Pid
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return result.Timeout(fmt.Sprintf("command timed out: %v", ctx.Err()), meta), nil
		}
		res := result.Err(result.KindExecution, fmt.Sprintf("command failed: %v", runErr))
		res.Content = out.String()
		res.Meta = meta
		return res, nil
	}

	res := result.Ok(out.String())
	res.Meta = meta
	return res, nil
}
