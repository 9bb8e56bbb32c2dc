// Package llm provides the agent loop's language-model boundary: a
// provider-agnostic Request/Response pair, a narrow Generator interface
// (used by the planning tool to avoid importing the full agent), and
// two concrete backends — an OpenAI-compatible HTTP adapter grounded on
// original_source/RadisProject/app/llm/fixed_lm_studio_client.py's
// multi-endpoint-probing design, and a thin wrapper over
// github.com/anthropics/anthropic-sdk-go grounded on
// goadesign-goa-ai's features/model/anthropic adapter.
package llm

import (
	"context"

	"github.com/agentcore-dev/agentcore/pkg/message"
)

// ToolDefinition describes a callable tool to the model, mirroring the
// teacher's pkg/llms.ToolDefinition.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one turn's worth of context sent to the model.
type Request struct {
	Messages    []message.Message
	Tools       []ToolDefinition
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response is the model's reply: either plain text, or one or more
// tool calls (never both meaningfully populated for the providers this
// package supports, mirroring the teacher's convention).
type Response struct {
	Content   string
	ToolCalls []message.ToolCall
	Tokens    int
}

// Client is the full LLM provider contract.
type Client interface {
	Generator

	// Close releases any held resources (idle connections, SDK
	// clients). Safe to call multiple times.
	Close() error
}

// Generator is the narrow subset of Client the planning tool depends
// on, split out so pkg/plan never needs to import the full pkg/agent
// dependency graph just to ask the model for a step breakdown.
type Generator interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
