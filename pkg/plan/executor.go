package plan

import (
	"context"
	"fmt"
	"time"
)

// StepExecutor runs one plan step and reports its outcome. Concrete
// agents satisfy this by delegating to Agent.Run with the step
// description as the prompt; the default (used when no executor is
// configured) is a stand-in that sleeps briefly and reports success so
// the planning tool is independently testable without an agent.
type StepExecutor func(ctx context.Context, step string) (string, error)

// DefaultExecutor is the execute_step hook's zero-value behavior: no
// agent wired in, so each step trivially "succeeds" after a short
// simulated delay.
func DefaultExecutor(ctx context.Context, step string) (string, error) {
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("completed: %s", step), nil
}
