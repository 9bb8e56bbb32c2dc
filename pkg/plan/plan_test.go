package plan

import "testing"

func TestPlan_Validate(t *testing.T) {
	cases := []struct {
		name     string
		steps    []string
		wantErrs int
		wantWarn int
	}{
		{"empty", nil, 1, 0},
		{"has empty step", []string{"a", "", "c"}, 1, 0},
		{"too few", []string{"a", "b"}, 0, 1},
		{"healthy", []string{"a", "b", "c"}, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statuses, notes := newStepTracking(len(tc.steps))
			p := &Plan{Steps: tc.steps, StepStatuses: statuses, StepNotes: notes}
			findings := p.Validate()

			var errs, warns int
			for _, f := range findings {
				switch f.Severity {
				case "error":
					errs++
				case "warning":
					warns++
				}
			}
			if errs != tc.wantErrs {
				t.Errorf("errors = %d, want %d (%+v)", errs, tc.wantErrs, findings)
			}
			if warns != tc.wantWarn {
				t.Errorf("warnings = %d, want %d (%+v)", warns, tc.wantWarn, findings)
			}
		})
	}
}

// TestPlan_Validate_StepTrackingMismatch covers P1: a plan whose
// StepStatuses/StepNotes don't match len(Steps) reports an error for
// each mismatched slice, regardless of the steps themselves being
// otherwise healthy.
func TestPlan_Validate_StepTrackingMismatch(t *testing.T) {
	p := &Plan{
		Steps:        []string{"a", "b", "c"},
		StepStatuses: []StepStatus{StepNotStarted},
		StepNotes:    nil,
	}
	findings := p.Validate()

	var errs int
	for _, f := range findings {
		if f.Severity == "error" {
			errs++
		}
	}
	if errs != 2 {
		t.Fatalf("errors = %d, want 2 (one for step_statuses, one for step_notes): %+v", errs, findings)
	}
}

func TestPlan_Done(t *testing.T) {
	statuses, notes := newStepTracking(3)
	complete := &Plan{Steps: []string{"a", "b", "c"}, StepStatuses: statuses, StepNotes: notes, CurrentStep: 3}
	if !complete.Done() {
		t.Fatalf("expected Done() once CurrentStep reaches len(Steps) with no failure")
	}

	failed := 1
	stalled := &Plan{Steps: []string{"a", "b", "c"}, StepStatuses: statuses, StepNotes: notes, CurrentStep: 1, FailedStep: &failed}
	if stalled.Done() {
		t.Fatalf("expected Done() false while FailedStep is set")
	}
}

func TestPlan_Reset(t *testing.T) {
	failed := 1
	p := &Plan{
		Steps:        []string{"a", "b", "c"},
		StepStatuses: []StepStatus{StepCompleted, StepBlocked, StepNotStarted},
		StepNotes:    []string{"done", "boom", ""},
		CurrentStep:  2,
		FailedStep:   &failed,
		LastResult:   "x",
	}

	p.Reset()
	if p.CurrentStep != 0 || p.FailedStep != nil || p.LastResult != "" {
		t.Fatalf("Reset() left %+v", p)
	}
	for i, s := range p.StepStatuses {
		if s != StepNotStarted {
			t.Errorf("StepStatuses[%d] = %q, want %q after Reset", i, s, StepNotStarted)
		}
	}
	for i, n := range p.StepNotes {
		if n != "" {
			t.Errorf("StepNotes[%d] = %q, want empty after Reset", i, n)
		}
	}
}

func TestPlan_NormalizeStepTracking(t *testing.T) {
	// Simulates an older persisted document with no step tracking at all.
	p := &Plan{Steps: []string{"a", "b", "c"}}
	p.normalizeStepTracking()

	if len(p.StepStatuses) != 3 || len(p.StepNotes) != 3 {
		t.Fatalf("normalizeStepTracking() left lengths %d/%d, want 3/3", len(p.StepStatuses), len(p.StepNotes))
	}
	for _, s := range p.StepStatuses {
		if s != StepNotStarted {
			t.Errorf("expected StepNotStarted for an untracked step, got %q", s)
		}
	}
}
