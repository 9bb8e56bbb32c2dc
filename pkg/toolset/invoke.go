package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agentcore-dev/agentcore/pkg/observability"
	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// defaultTimeout is the per-tool execution timeout when neither the
// tool's TimeoutOverride nor a per-call override applies.
const defaultTimeout = 30 * time.Second

// graceWindow is how long Invoker waits after signaling cancellation
// before treating the tool as force-killed.
const graceWindow = 100 * time.Millisecond

// Invoker is the tool invocation layer: it turns a raw (name, args)
// pair from the LLM into an executed side effect and a normalized
// ToolResult.
type Invoker struct {
	registry *Registry
	cache    Cache
	metrics  *observability.Metrics

	mu       sync.Mutex
	schemas  map[string]*jsonschema.Schema
}

// NewInvoker builds an Invoker over registry, with the given cache
// (pass NewMemoryCache() for the default in-process behavior).
func NewInvoker(reg *Registry, cache Cache) *Invoker {
	return &Invoker{
		registry: reg,
		cache:    cache,
		metrics:  observability.Default(),
		schemas:  make(map[string]*jsonschema.Schema),
	}
}

// Invoke parses rawArgs per the three-step rule, validates against the
// tool's schema, checks the cache, and executes t.Run under a timeout.
// It never returns a Go error for tool-side failures: those are encoded
// in the returned ToolResult's Status/ErrorKind, converting
// exception-driven control flow into tagged results. An unregistered
// tool name is reported the same way, as a KindNotFound ToolResult;
// every path returns a nil error.
func (inv *Invoker) Invoke(ctx context.Context, toolName string, rawArgs any) (result.ToolResult, error) {
	t, err := inv.registry.Get(toolName)
	if err != nil {
		return result.Err(result.KindNotFound, fmt.Sprintf("tool %q is not registered", toolName)), nil
	}

	args, perr := ParseArguments(rawArgs, t.Parameters())
	if perr != nil {
		return result.Err(result.KindArgumentParse, perr.Error()), nil
	}

	if verr := inv.validate(t, args); verr != nil {
		return result.Err(result.KindInvalidArgument, verr.Error()), nil
	}

	if t.Cacheable() && inv.cache != nil {
		key := CanonicalKey(toolName, args)
		if cached, ok := inv.cache.Get(key); ok {
			return cached, nil
		}
		res := inv.execute(ctx, t, args)
		if res.Status == result.StatusSuccess {
			ttl := t.DefaultTTL()
			if ttl <= 0 {
				ttl = 300 * time.Second
			}
			inv.cache.Set(key, res, ttl)
		}
		return res, nil
	}

	return inv.execute(ctx, t, args), nil
}

// execute runs t.Run under the applicable timeout, normalizing panics,
// timeouts, and returned errors into a ToolResult.
func (inv *Invoker) execute(ctx context.Context, t tool.Tool, args map[string]any) result.ToolResult {
	timeout := defaultTimeout
	if o := t.TimeoutOverride(); o > 0 {
		timeout = o
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan toolOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- toolOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := t.Run(runCtx, args)
		done <- toolOutcome{res: res, err: err}
	}()

	finish := func(o toolOutcome) result.ToolResult {
		elapsed := time.Since(start)
		inv.record(t.Name(), statusOf(o), elapsed)
		if o.err != nil {
			return result.Err(result.KindExecution, o.err.Error())
		}
		return normalize(t.Name(), o.res)
	}

	select {
	case o := <-done:
		return finish(o)
	case <-runCtx.Done():
		// Grace window for the tool to notice cancellation and return
		// partial output before we report a hard timeout.
		select {
		case o := <-done:
			return finish(o)
		case <-time.After(graceWindow):
			elapsed := time.Since(start)
			inv.record(t.Name(), result.StatusTimeout, elapsed)
			return result.Timeout(
				fmt.Sprintf("tool %q exceeded its %s timeout", t.Name(), timeout),
				result.Meta{ToolName: t.Name(), ExecutionTime: elapsed},
			)
		}
	}
}

// toolOutcome carries a tool's raw (result, error) return pair across
// the goroutine boundary execute uses to enforce timeouts.
type toolOutcome struct {
	res result.ToolResult
	err error
}

func statusOf(o toolOutcome) result.Status {
	if o.err != nil {
		return result.StatusError
	}
	return o.res.Status
}

func (inv *Invoker) record(toolName string, status result.Status, elapsed time.Duration) {
	if inv.metrics == nil {
		return
	}
	inv.metrics.ToolExecutions.WithLabelValues(toolName, string(status)).Inc()
	inv.metrics.ToolDuration.WithLabelValues(toolName).Observe(elapsed.Seconds())
}

// normalize converts whatever a tool returned into a well-formed
// ToolResult: pass through if it already has a Status, else treat bare
// content as a success.
func normalize(toolName string, res result.ToolResult) result.ToolResult {
	if res.Status == "" {
		res.Status = result.StatusSuccess
	}
	res.Meta.ToolName = toolName
	return res
}

// validate compiles (and caches) t's JSON schema and checks args
// against it.
func (inv *Invoker) validate(t tool.Tool, args map[string]any) error {
	schema := t.Parameters()
	if schema == nil {
		return nil
	}

	inv.mu.Lock()
	compiled, ok := inv.schemas[t.Name()]
	inv.mu.Unlock()
	if !ok {
		raw, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("tool %q: marshal schema: %w", t.Name(), err)
		}
		c, err := jsonschema.CompileString(t.Name()+".schema.json", string(raw))
		if err != nil {
			return fmt.Errorf("tool %q: compile schema: %w", t.Name(), err)
		}
		inv.mu.Lock()
		inv.schemas[t.Name()] = c
		inv.mu.Unlock()
		compiled = c
	}

	// jsonschema validates decoded JSON values (map[string]any with
	// float64 numbers), so round-trip through encoding/json to match
	// its expectations exactly.
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return compiled.Validate(decoded)
}
