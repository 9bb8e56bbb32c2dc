package plan

import (
	"context"
	"errors"
	"testing"
)

func TestExecuteStep_Success(t *testing.T) {
	p := &Plan{Steps: []string{"a", "b"}}
	out, err := ExecuteStep(context.Background(), p, func(_ context.Context, step string) (string, error) {
		return "ok:" + step, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok:a" {
		t.Fatalf("out = %q", out)
	}
	if p.CurrentStep != 1 || p.FailedStep != nil {
		t.Fatalf("p = %+v", p)
	}
	if p.StepStatuses[0] != StepCompleted {
		t.Fatalf("StepStatuses[0] = %q, want %q", p.StepStatuses[0], StepCompleted)
	}
	if p.StepNotes[0] != "ok:a" {
		t.Fatalf("StepNotes[0] = %q, want %q", p.StepNotes[0], "ok:a")
	}
	if p.StepStatuses[1] != StepNotStarted {
		t.Fatalf("StepStatuses[1] = %q, want untouched %q", p.StepStatuses[1], StepNotStarted)
	}
}

func TestExecuteStep_FailureRecordsFailedStepWithoutAdvancing(t *testing.T) {
	p := &Plan{Steps: []string{"a", "b"}}
	boom := errors.New("boom")
	_, err := ExecuteStep(context.Background(), p, func(_ context.Context, step string) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if p.CurrentStep != 0 {
		t.Fatalf("current_step = %d, want unchanged at 0", p.CurrentStep)
	}
	if p.FailedStep == nil || *p.FailedStep != 0 {
		t.Fatalf("failed_step = %v, want pointer to 0", p.FailedStep)
	}
	if p.StepStatuses[0] != StepBlocked {
		t.Fatalf("StepStatuses[0] = %q, want %q", p.StepStatuses[0], StepBlocked)
	}
	if p.StepNotes[0] != "boom" {
		t.Fatalf("StepNotes[0] = %q, want %q", p.StepNotes[0], "boom")
	}
}

func TestExecuteAll_StopsAtFirstFailure(t *testing.T) {
	p := &Plan{Steps: []string{"a", "b", "c"}}
	calls := 0
	summary := ExecuteAll(context.Background(), p, func(_ context.Context, step string) (string, error) {
		calls++
		if step == "b" {
			return "", errors.New("b failed")
		}
		return "done", nil
	})

	if calls != 2 {
		t.Fatalf("expected exactly 2 calls (a succeeds, b fails), got %d", calls)
	}
	if summary.CompletedSteps != 1 || summary.TotalSteps != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.FailedStep == nil || *summary.FailedStep != 1 {
		t.Fatalf("failed_step = %v, want pointer to 1", summary.FailedStep)
	}
	if p.StepStatuses[0] != StepCompleted || p.StepStatuses[1] != StepBlocked || p.StepStatuses[2] != StepNotStarted {
		t.Fatalf("StepStatuses = %v, want [completed blocked not_started]", p.StepStatuses)
	}
}

func TestExecuteAll_CompletesCleanly(t *testing.T) {
	p := &Plan{Steps: []string{"a", "b"}}
	summary := ExecuteAll(context.Background(), p, func(_ context.Context, step string) (string, error) {
		return "done", nil
	})
	if summary.CompletedSteps != 2 || summary.FailedStep != nil {
		t.Fatalf("summary = %+v", summary)
	}
	if !p.Done() {
		t.Fatalf("expected plan to be Done()")
	}
	for i, s := range p.StepStatuses {
		if s != StepCompleted {
			t.Fatalf("StepStatuses[%d] = %q, want %q", i, s, StepCompleted)
		}
	}
}

func TestExecuteStep_NoRemainingSteps(t *testing.T) {
	p := &Plan{Steps: []string{"a"}, CurrentStep: 1}
	if _, err := ExecuteStep(context.Background(), p, DefaultExecutor); err == nil {
		t.Fatal("expected error when no steps remain")
	}
}
