package plan

import (
	"context"
	"testing"

	"github.com/agentcore-dev/agentcore/pkg/llm"
)

type stubGenerator struct {
	resp llm.Response
	err  error
}

func (s stubGenerator) Complete(context.Context, llm.Request) (llm.Response, error) {
	return s.resp, s.err
}

func TestGenerateSteps_NilGenerator(t *testing.T) {
	steps, err := GenerateSteps(context.Background(), nil, "build a thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != len(fallbackSteps) {
		t.Fatalf("got %d steps, want %d fallback steps", len(steps), len(fallbackSteps))
	}
}

func TestGenerateSteps_JSONArray(t *testing.T) {
	gen := stubGenerator{resp: llm.Response{Content: `Sure, here you go: ["do x", "do y", "do z"]`}}

	steps, err := GenerateSteps(context.Background(), gen, "task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"do x", "do y", "do z"}
	if len(steps) != len(want) {
		t.Fatalf("got %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("got %v, want %v", steps, want)
		}
	}
}

func TestGenerateSteps_NumberedFallback(t *testing.T) {
	gen := stubGenerator{resp: llm.Response{Content: "Step 1: do x\nStep 2: do y\nsome other line\n3) do z"}}

	steps, err := GenerateSteps(context.Background(), gen, "task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"do x", "do y", "do z"}
	if len(steps) != len(want) {
		t.Fatalf("got %v, want %v", steps, want)
	}
}

func TestGenerateSteps_TotalFailureFallsBackToGeneric(t *testing.T) {
	gen := stubGenerator{resp: llm.Response{Content: "I cannot help with that."}}

	steps, err := GenerateSteps(context.Background(), gen, "task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != len(fallbackSteps) {
		t.Fatalf("got %d steps, want generic fallback of %d", len(steps), len(fallbackSteps))
	}
}
