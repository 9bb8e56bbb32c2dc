package plan

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/agentcore-dev/agentcore/pkg/llm"
	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// Tool exposes the ten planning commands (create, load, save, list,
// delete, validate, execute, execute_step, get_status, reset) as a
// single registrable tool.Tool, selected by a "command" argument (or
// inferred: presence of "task"/"steps" with no command implies
// create). It keeps one "current" plan in memory between calls, the
// way a single conversation's planning tool accumulates state across
// several agent turns.
type Tool struct {
	tool.Base

	store *Store
	gen   llm.Generator
	exec  StepExecutor

	mu      sync.Mutex
	current *Plan
}

// NewTool constructs a planning Tool backed by store. gen may be nil
// (step generation falls back to the generic plan); exec may be nil
// (DefaultExecutor is used).
func NewTool(store *Store, gen llm.Generator, exec StepExecutor) *Tool {
	return &Tool{store: store, gen: gen, exec: exec}
}

func (t *Tool) Name() string { return "plan" }

func (t *Tool) Description() string {
	return "Create, persist, and execute a step-indexed plan for a task."
}

func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type": "string",
				"enum": []any{
					"create", "load", "save", "list", "delete",
					"validate", "execute", "execute_step", "get_status", "reset",
				},
			},
			"task": map[string]any{
				"type":        "string",
				"description": "Task description to generate steps for (create only).",
			},
			"steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Steps to accept verbatim instead of generating them (create only).",
			},
			"plan_id": map[string]any{
				"type":        "string",
				"description": "Target plan ID (load, delete, validate, execute).",
			},
		},
	}
}

func (t *Tool) Run(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	command, _ := args["command"].(string)
	if command == "" {
		if _, hasTask := args["task"]; hasTask {
			command = "create"
		} else if _, hasSteps := args["steps"]; hasSteps {
			command = "create"
		} else {
			return result.Err(result.KindInvalidArgument, "command is required"), nil
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch command {
	case "create":
		return t.create(ctx, args)
	case "load":
		return t.load(args)
	case "save":
		return t.save()
	case "list":
		return t.list()
	case "delete":
		return t.delete(args)
	case "validate":
		return t.validate(args)
	case "execute":
		return t.execute(ctx, args)
	case "execute_step":
		return t.executeStep(ctx)
	case "get_status":
		return t.getStatus()
	case "reset":
		return t.reset()
	default:
		return result.Err(result.KindInvalidArgument, "unknown command: "+command), nil
	}
}

func (t *Tool) create(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	task, _ := args["task"].(string)

	var steps []string
	if raw, ok := args["steps"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				steps = append(steps, s)
			}
		}
	}

	if len(steps) == 0 {
		if task == "" {
			return result.Err(result.KindValidation, "create requires either task or steps"), nil
		}
		generated, err := GenerateSteps(ctx, t.gen, task)
		if err != nil {
			return result.Err(result.KindValidation, "step generation failed: "+err.Error()), nil
		}
		steps = generated
	}

	p, err := t.store.Create(steps, task)
	if err != nil {
		return result.Err(result.KindIO, err.Error()), nil
	}
	t.current = p
	return result.OkStructured(p), nil
}

func (t *Tool) load(args map[string]any) (result.ToolResult, error) {
	id, _ := args["plan_id"].(string)
	if id == "" {
		return result.Err(result.KindInvalidArgument, "plan_id is required"), nil
	}
	p, err := t.store.Load(id)
	if err != nil {
		return storeErrResult(err), nil
	}
	t.current = p
	return result.OkStructured(p), nil
}

func (t *Tool) save() (result.ToolResult, error) {
	if t.current == nil {
		return result.Err(result.KindInvalidArgument, "no plan loaded; call create or load first"), nil
	}
	if err := t.store.Save(t.current); err != nil {
		return result.Err(result.KindIO, err.Error()), nil
	}
	return result.OkStructured(t.current), nil
}

func (t *Tool) list() (result.ToolResult, error) {
	return result.OkStructured(t.store.List()), nil
}

func (t *Tool) delete(args map[string]any) (result.ToolResult, error) {
	id, _ := args["plan_id"].(string)
	if id == "" {
		return result.Err(result.KindInvalidArgument, "plan_id is required"), nil
	}
	if err := t.store.Delete(id); err != nil {
		return storeErrResult(err), nil
	}
	if t.current != nil && t.current.ID == id {
		t.current = nil
	}
	return result.Ok("deleted " + id), nil
}

func (t *Tool) validate(args map[string]any) (result.ToolResult, error) {
	p, err := t.resolvePlan(args)
	if err != nil {
		return storeErrResult(err), nil
	}
	return result.OkStructured(p.Validate()), nil
}

func (t *Tool) execute(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	p, err := t.resolvePlan(args)
	if err != nil {
		return storeErrResult(err), nil
	}
	t.current = p

	summary := ExecuteAll(ctx, p, t.exec)
	if saveErr := t.store.Save(p); saveErr != nil {
		return result.Err(result.KindIO, saveErr.Error()), nil
	}
	if summary.FailedStep != nil {
		res := result.Err(result.KindExecution, "plan execution stopped at step "+strconv.Itoa(*summary.FailedStep))
		res.Structured = summary
		return res, nil
	}
	return result.OkStructured(summary), nil
}

func (t *Tool) executeStep(ctx context.Context) (result.ToolResult, error) {
	if t.current == nil {
		return result.Err(result.KindInvalidArgument, "no plan loaded; call create or load first"), nil
	}
	out, err := ExecuteStep(ctx, t.current, t.exec)
	if saveErr := t.store.Save(t.current); saveErr != nil {
		return result.Err(result.KindIO, saveErr.Error()), nil
	}
	if err != nil {
		res := result.Err(result.KindExecution, err.Error())
		res.Structured = t.current.Status()
		return res, nil
	}
	return result.Ok(out), nil
}

func (t *Tool) getStatus() (result.ToolResult, error) {
	if t.current == nil {
		return result.Err(result.KindInvalidArgument, "no plan loaded; call create or load first"), nil
	}
	return result.OkStructured(t.current.Status()), nil
}

func (t *Tool) reset() (result.ToolResult, error) {
	if t.current == nil {
		return result.Err(result.KindInvalidArgument, "no plan loaded; call create or load first"), nil
	}
	t.current.Reset()
	if err := t.store.Save(t.current); err != nil {
		return result.Err(result.KindIO, err.Error()), nil
	}
	return result.OkStructured(t.current.Status()), nil
}

// resolvePlan returns the plan named by args["plan_id"] if present,
// loading it from the store without making it current (execute does
// that itself); otherwise it falls back to the already-current
// in-memory plan.
func (t *Tool) resolvePlan(args map[string]any) (*Plan, error) {
	if id, _ := args["plan_id"].(string); id != "" {
		p, err := t.store.Load(id)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if t.current == nil {
		return nil, errNotFound
	}
	return t.current, nil
}

func storeErrResult(err error) result.ToolResult {
	switch {
	case errors.Is(err, errNotFound):
		return result.Err(result.KindNotFound, err.Error())
	case errors.Is(err, errCorrupt):
		return result.Err(result.KindIO, err.Error())
	default:
		return result.Err(result.KindIO, err.Error())
	}
}

var _ tool.Tool = (*Tool)(nil)
