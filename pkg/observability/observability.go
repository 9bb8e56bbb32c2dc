// Package observability wires OpenTelemetry tracing and Prometheus
// metrics for the agent loop, tool invocation layer, and LLM client.
// Tracing follows the teacher's pkg/observability naming; metrics are
// exposed through a single process-wide registry.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Span and attribute names, kept stable so dashboards and log queries
// can rely on them.
const (
	AttrToolName   = "tool.name"
	AttrAgentState = "agent.state"
	AttrLLMModel   = "llm.model"
	AttrErrorKind  = "error.kind"

	SpanAgentRun       = "agent.run"
	SpanAgentTransition = "agent.transition"
	SpanToolExecution   = "agent.tool_execution"
	SpanLLMRequest      = "agent.llm_request"
	SpanPlanExecute     = "agent.plan_execute"
)

// TracerConfig controls whether spans are actually exported or dropped.
type TracerConfig struct {
	Enabled     bool
	ServiceName string
}

// InitTracer installs a global TracerProvider. With Enabled=false (the
// default for tests and short-lived CLI invocations) it installs
// nothing and returns the currently installed global provider (otel's
// no-op default unless one was set), matching the teacher's "disabled
// means noop" behavior without requiring a live collector.
func InitTracer(_ context.Context, cfg TracerConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return otel.GetTracerProvider(), nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns a named tracer from the currently installed provider.
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// Metrics is the process-wide set of Prometheus collectors agentcore
// reports against. Construct one with NewMetrics and register it with
// a prometheus.Registerer (or use the package-level Default()).
type Metrics struct {
	ToolExecutions   *prometheus.CounterVec
	ToolDuration     *prometheus.HistogramVec
	AgentIterations  prometheus.Counter
	LoopDetections   prometheus.Counter
	PlanStepsRun     *prometheus.CounterVec
}

// NewMetrics constructs and registers the agentcore metric collectors
// against reg. Pass prometheus.NewRegistry() in tests to avoid
// colliding with the global default registerer across parallel tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_tool_executions_total",
			Help: "Tool executions by tool name and status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "agentcore_tool_duration_seconds",
			Help: "Tool execution duration in seconds.",
		}, []string{"tool"}),
		AgentIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_agent_iterations_total",
			Help: "Total agent-loop iterations across all runs.",
		}),
		LoopDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_agent_loop_detected_total",
			Help: "Total loop-detector triggers.",
		}),
		PlanStepsRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_plan_steps_total",
			Help: "Plan steps executed by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.ToolExecutions, m.ToolDuration, m.AgentIterations, m.LoopDetections, m.PlanStepsRun)
	return m
}

var defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// Default returns the process-wide Metrics registered against
// prometheus.DefaultRegisterer.
func Default() *Metrics { return defaultMetrics }
