// Package agent implements the agent control loop: a state
// machine that alternates LLM calls and tool dispatch against a
// pkg/message.Store and a pkg/toolset.Invoker until the model returns
// a final answer, an iteration cap is hit, a loop is detected, or a
// tool signals termination.
package agent

import (
	"github.com/agentcore-dev/agentcore/pkg/message"
	"github.com/agentcore-dev/agentcore/pkg/result"
)

// State is one of the agent's five control-loop states.
type State string

const (
	StateIdle      State = "idle"
	StateThinking  State = "thinking"
	StateExecuting State = "executing"
	StateDone      State = "done"
	StateError     State = "error"
)

// Mode is an advisory hint about how the caller wants the agent to
// approach the prompt; it does not change the state machine, only the
// system prompt framing.
type Mode string

const (
	ModeAction Mode = "action"
	ModePlan   Mode = "plan"
)

// RunResult is Run's output: exactly one of Status ∈
// {success, error, timeout} is reported; Response is always a
// human-readable final string; ToolCalls lists every call actually
// dispatched, in order.
type RunResult struct {
	Response   string             `json:"response"`
	Status     result.Status      `json:"status"`
	ErrorKind  result.Kind        `json:"error_kind,omitempty"`
	ToolCalls  []message.ToolCall `json:"tool_calls"`
	Iterations int                `json:"iterations"`
}
