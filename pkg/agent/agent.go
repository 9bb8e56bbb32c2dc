package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/agentcore-dev/agentcore/pkg/llm"
	"github.com/agentcore-dev/agentcore/pkg/message"
	"github.com/agentcore-dev/agentcore/pkg/observability"
	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
	"github.com/agentcore-dev/agentcore/pkg/toolset"
)

// Config controls the agent loop's bounds, sampling parameters, and
// retry policy.
type Config struct {
	// MaxIterations bounds how many times the loop transitions into
	// EXECUTING before the fallback synthesis kicks in. Must be > 0:
	// 0 is a configuration error, not "unlimited" (an explicit
	// resolution of an open question — an unbounded agent loop has no
	// safe default).
	MaxIterations int

	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int

	// RetryAttempts/RetryBaseDelay/RetryMaxDelay govern the LLM call
	// retry policy: default 3 attempts, 1s base capped at 8s.
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// defaults fills zero-valued fields with their stated defaults.
func (c Config) defaults() Config {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.5
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RetryMaxDelay == 0 {
		c.RetryMaxDelay = 8 * time.Second
	}
	return c
}

// Agent drives one conversation: it owns a message store and a
// planning-tool handle (registered like any other tool) and shares the
// process-wide tool registry and invocation layer.
type Agent struct {
	cfg     Config
	memory  *message.Store
	reg     *toolset.Registry
	inv     *toolset.Invoker
	gen     llm.Generator
	log     *slog.Logger
	metrics *observability.Metrics
}

// New constructs an Agent. cfg.MaxIterations <= 0 is a validation
// error; the other zero-valued fields are filled with their defaults.
func New(cfg Config, memory *message.Store, reg *toolset.Registry, inv *toolset.Invoker, gen llm.Generator, log *slog.Logger) (*Agent, error) {
	if cfg.MaxIterations <= 0 {
		return nil, result.New(result.KindValidation, "max_iterations must be > 0")
	}
	if memory == nil || reg == nil || inv == nil || gen == nil {
		return nil, result.New(result.KindValidation, "memory, registry, invoker, and generator are all required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		cfg:     cfg.defaults(),
		memory:  memory,
		reg:     reg,
		inv:     inv,
		gen:     gen,
		log:     log,
		metrics: observability.Default(),
	}, nil
}

// Run drives the conversation from prompt to a final answer. It
// returns a Go error only for preconditions the state machine never
// even starts for (an empty prompt); every in-loop failure (LLM error,
// cancellation, loop detection) is reported through RunResult.Status
// instead, per the tagged-result convention the rest of the module
// follows.
func (a *Agent) Run(ctx context.Context, prompt string, mode Mode) (RunResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return RunResult{}, result.New(result.KindValidation, "prompt must not be empty")
	}

	if _, ok := a.memory.System(); !ok {
		_ = a.memory.SetSystem(message.Message{Content: systemPromptFor(a.cfg.SystemPrompt, mode)})
	}

	state := StateThinking
	if err := a.memory.Append(message.Message{Role: message.RoleUser, Content: prompt}); err != nil {
		return RunResult{}, result.Wrap(result.KindValidation, "append user message", err)
	}

	var dispatched []message.ToolCall
	detector := &loopDetector{}
	iterations := 0

	for {
		if cerr := ctx.Err(); cerr != nil {
			return a.cancelledResult(cerr, dispatched, iterations), nil
		}

		if iterations >= a.cfg.MaxIterations {
			return RunResult{
				Response:   synthesizeResponse(a.memory.Snapshot(), prompt),
				Status:     result.StatusSuccess,
				ToolCalls:  dispatched,
				Iterations: iterations,
			}, nil
		}

		resp, err := a.callLLM(ctx)
		if err != nil {
			state = StateError
			a.log.ErrorContext(ctx, "llm call failed", "error", err, "state", state)
			return RunResult{
				Response:   fmt.Sprintf("I couldn't reach the language model: %v", err),
				Status:     result.StatusError,
				ErrorKind:  result.KindLLMConnection,
				ToolCalls:  dispatched,
				Iterations: iterations,
			}, nil
		}

		if len(resp.ToolCalls) == 0 {
			state = StateDone
			if err := a.memory.Append(message.Message{Role: message.RoleAssistant, Content: resp.Content}); err != nil {
				return RunResult{}, result.Wrap(result.KindValidation, "append assistant message", err)
			}
			final := resp.Content
			if strings.TrimSpace(final) == "" {
				final = synthesizeResponse(a.memory.Snapshot(), prompt)
			}
			return RunResult{Response: final, Status: result.StatusSuccess, ToolCalls: dispatched, Iterations: iterations}, nil
		}

		state = StateExecuting
		iterations++
		a.metrics.AgentIterations.Inc()

		if err := a.memory.Append(message.Message{Role: message.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}); err != nil {
			return RunResult{}, result.Wrap(result.KindValidation, "append assistant tool-call message", err)
		}
		if strings.TrimSpace(resp.Content) != "" {
			// Non-empty assistant content counts as progress for the loop detector.
			detector.record("", true)
		}

		outcome, terminal, loopErr := a.dispatchAll(ctx, resp.ToolCalls, detector, &dispatched)
		if loopErr {
			return RunResult{
				Response:   "I seem to be repeating the same action without making progress, so I'm stopping here.",
				Status:     result.StatusError,
				ErrorKind:  result.KindLoop,
				ToolCalls:  dispatched,
				Iterations: iterations,
			}, nil
		}
		if terminal {
			state = StateDone
			return RunResult{Response: outcome, Status: result.StatusSuccess, ToolCalls: dispatched, Iterations: iterations}, nil
		}

		state = StateThinking
	}
}

// dispatchAll runs every tool call in resp.ToolCalls in declaration
// order, appending a tool-role message for each (preserving M1) even
// after a failure, since failures don't abort subsequent calls. It
// returns the terminate tool's content (if any), whether a terminal
// result was reached, and whether a second loop detection fired.
func (a *Agent) dispatchAll(ctx context.Context, calls []message.ToolCall, detector *loopDetector, dispatched *[]message.ToolCall) (terminateContent string, terminal bool, loopErr bool) {
	for _, call := range calls {
		*dispatched = append(*dispatched, call)

		res, err := a.inv.Invoke(ctx, call.FunctionName, call.Arguments)
		if err != nil {
			res = result.Err(result.KindExecution, err.Error())
		}

		progress := res.Status == result.StatusSuccess
		key := call.FunctionName + ":" + canonicalArgsKey(call.Arguments)
		detected := detector.record(key, progress)

		content := renderToolResult(res)
		appendErr := a.memory.Append(message.Message{
			Role:       message.RoleTool,
			Content:    content,
			ToolCallID: call.ID,
			Name:       call.FunctionName,
		})
		if appendErr != nil {
			a.log.WarnContext(ctx, "failed to append tool result to memory", "error", appendErr, "tool", call.FunctionName)
		}

		if res.IsTerminal() {
			return res.Content, true, false
		}

		if detected {
			a.metrics.LoopDetections.Inc()
			if detector.detections >= 2 {
				return "", false, true
			}
			_ = a.memory.Append(message.Message{
				Role:    message.RoleSystem,
				Content: "You have called the same tool with the same arguments repeatedly without making progress. Try a different approach.",
			})
		}
	}
	return "", false, false
}

// cancelledResult builds the ERROR-state result for a cancelled or
// deadline-exceeded context.
func (a *Agent) cancelledResult(cerr error, dispatched []message.ToolCall, iterations int) RunResult {
	_ = a.memory.Append(message.Message{Role: message.RoleSystem, Content: "cancelled"})

	if errors.Is(cerr, context.DeadlineExceeded) {
		return RunResult{
			Response:   "The request was cancelled because it took too long.",
			Status:     result.StatusTimeout,
			ErrorKind:  result.KindTimeout,
			ToolCalls:  dispatched,
			Iterations: iterations,
		}
	}
	return RunResult{
		Response:   "The request was cancelled.",
		Status:     result.StatusError,
		ErrorKind:  result.KindCancelled,
		ToolCalls:  dispatched,
		Iterations: iterations,
	}
}

// callLLM wraps gen.Complete in the agent-level retry policy: up to
// cfg.RetryAttempts attempts, exponential backoff from RetryBaseDelay
// capped at RetryMaxDelay. This is independent of (and layered above)
// any HTTP-level retry pkg/llm's own adapters perform.
func (a *Agent) callLLM(ctx context.Context) (llm.Response, error) {
	req := llm.Request{
		Messages:    a.memory.Snapshot(),
		Tools:       toLLMTools(a.reg.List()),
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	// WithMaxRetries counts retries after the first attempt.
	retries := a.cfg.RetryAttempts - 1
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			&backoff.ExponentialBackOff{
				InitialInterval:     a.cfg.RetryBaseDelay,
				RandomizationFactor: 0.1,
				Multiplier:          2,
				MaxInterval:         a.cfg.RetryMaxDelay,
				MaxElapsedTime:      0,
				Clock:               backoff.SystemClock,
			},
			uint64(retries),
		),
		ctx,
	)

	var resp llm.Response
	err := backoff.Retry(func() error {
		r, err := a.gen.Complete(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, policy)
	if err != nil {
		return llm.Response{}, err
	}
	return resp, nil
}

// Reset clears conversation memory (re-seeding only the system
// prompt), releases tool state via Reset on every registered tool, and
// returns the agent to an implicit IDLE (the next Run call re-seeds
// the user message and starts fresh).
func (a *Agent) Reset(ctx context.Context) error {
	system, hadSystem := a.memory.System()
	a.memory.Clear()
	if hadSystem {
		_ = a.memory.SetSystem(system)
	}

	for name, t := range a.reg.List() {
		if err := t.Reset(ctx); err != nil {
			a.log.WarnContext(ctx, "tool reset failed", "tool", name, "error", err)
		}
	}
	return nil
}

func systemPromptFor(base string, mode Mode) string {
	if base == "" {
		base = "You are a helpful assistant with access to tools. Use them when they help answer the user's request."
	}
	if mode == ModePlan {
		base += " Prefer breaking multi-step tasks into a plan using the planning tool before executing."
	}
	return base
}

func toLLMTools(tools map[string]tool.Tool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(tools))
	for name, t := range tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        name,
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func renderToolResult(res result.ToolResult) string {
	if res.Content != "" {
		return res.Content
	}
	if res.Structured != nil {
		if b, err := json.Marshal(res.Structured); err == nil {
			return string(b)
		}
	}
	if res.Message != "" {
		return res.Message
	}
	return ""
}

// canonicalArgsKey normalizes a tool call's raw arguments (string or
// map) into a stable string for loop-detection keying. encoding/json
// sorts map keys when marshaling map[string]any, which is sufficient
// determinism for this purpose.
func canonicalArgsKey(args any) string {
	if s, ok := args.(string); ok {
		return s
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}
