// Package plan implements the planning tool: a durable, step-indexed
// plan attached to a task, persisted as one JSON document per plan
// under a configured directory (write-to-temp+rename, never a torn
// read), with LLM-backed step generation that degrades through a
// regex extractor and finally a generic fallback plan so a caller
// always receives something executable.
package plan

import (
	"fmt"
	"time"
)

// StepStatus is the per-step lifecycle state tracked alongside Steps.
type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepBlocked    StepStatus = "blocked"
)

// Plan is the persisted unit of work: a task broken into ordered
// steps, with a cursor (CurrentStep) tracking execution progress.
// StepStatuses and StepNotes track each step individually and are kept
// the same length as Steps (invariant P1): every step has exactly one
// status and one (possibly empty) note at rest.
type Plan struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	Task         string       `json:"task,omitempty"`
	Steps        []string     `json:"steps"`
	StepStatuses []StepStatus `json:"step_statuses"`
	StepNotes    []string     `json:"step_notes"`
	CurrentStep  int          `json:"current_step"`
	FailedStep   *int         `json:"failed_step,omitempty"`
	LastResult   string       `json:"last_result,omitempty"`
}

// newStepTracking returns a StepStatuses/StepNotes pair sized to n,
// every entry initialized to StepNotStarted / "".
func newStepTracking(n int) ([]StepStatus, []string) {
	statuses := make([]StepStatus, n)
	for i := range statuses {
		statuses[i] = StepNotStarted
	}
	return statuses, make([]string, n)
}

// normalizeStepTracking restores P1 after Steps has been set directly
// (e.g. by json.Unmarshal on an older document that predates
// StepStatuses/StepNotes): it pads or truncates both slices to
// len(Steps), preserving whatever entries already line up.
func (p *Plan) normalizeStepTracking() {
	n := len(p.Steps)
	if len(p.StepStatuses) != n {
		statuses := make([]StepStatus, n)
		for i := range statuses {
			if i < len(p.StepStatuses) && p.StepStatuses[i] != "" {
				statuses[i] = p.StepStatuses[i]
			} else {
				statuses[i] = StepNotStarted
			}
		}
		p.StepStatuses = statuses
	}
	if len(p.StepNotes) != n {
		notes := make([]string, n)
		copy(notes, p.StepNotes)
		p.StepNotes = notes
	}
}

// Finding is one validation observation: either a hard error (blocks
// execution) or a warning (plan is executable but unusual).
type Finding struct {
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
}

// Validate checks the plan's structural invariants (non-empty step
// list, no empty-string steps, |steps| = |step_statuses| = |step_notes|
// at rest) as errors, and flags a step count outside 3-20 as a
// warning. It never mutates p.
func (p *Plan) Validate() []Finding {
	var findings []Finding

	if len(p.Steps) == 0 {
		findings = append(findings, Finding{Severity: "error", Message: "plan has no steps"})
	}
	for i, step := range p.Steps {
		if step == "" {
			findings = append(findings, Finding{Severity: "error", Message: fmt.Sprintf("step %d is empty", i)})
		}
	}
	if len(p.StepStatuses) != len(p.Steps) {
		findings = append(findings, Finding{Severity: "error", Message: fmt.Sprintf(
			"step_statuses has %d entries, want %d (one per step)", len(p.StepStatuses), len(p.Steps))})
	}
	if len(p.StepNotes) != len(p.Steps) {
		findings = append(findings, Finding{Severity: "error", Message: fmt.Sprintf(
			"step_notes has %d entries, want %d (one per step)", len(p.StepNotes), len(p.Steps))})
	}
	if n := len(p.Steps); n > 0 && n < 3 {
		findings = append(findings, Finding{Severity: "warning", Message: fmt.Sprintf("plan has only %d steps, fewer than the recommended minimum of 3", n)})
	}
	if len(p.Steps) > 20 {
		findings = append(findings, Finding{Severity: "warning", Message: fmt.Sprintf("plan has %d steps, more than the recommended maximum of 20", len(p.Steps))})
	}
	return findings
}

// HasErrors reports whether findings contains at least one error-level
// entry (as opposed to warnings only).
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == "error" {
			return true
		}
	}
	return false
}

// Done reports whether every step has been executed without failure.
func (p *Plan) Done() bool {
	return p.FailedStep == nil && p.CurrentStep >= len(p.Steps)
}

// Reset zeroes the execution cursor, clears any recorded failure, and
// resets every step back to StepNotStarted with an empty note, leaving
// Steps and Task untouched (reset+execute re-runs from step 0
// deterministically).
func (p *Plan) Reset() {
	p.CurrentStep = 0
	p.FailedStep = nil
	p.LastResult = ""
	p.StepStatuses, p.StepNotes = newStepTracking(len(p.Steps))
}

// Status is the snapshot returned by the get_status command.
type Status struct {
	CurrentStep  int          `json:"current_step"`
	TotalSteps   int          `json:"total_steps"`
	FailedStep   *int         `json:"failed_step,omitempty"`
	LastResult   string       `json:"last_result,omitempty"`
	StepStatuses []StepStatus `json:"step_statuses"`
	StepNotes    []string     `json:"step_notes"`
}

func (p *Plan) Status() Status {
	return Status{
		CurrentStep:  p.CurrentStep,
		TotalSteps:   len(p.Steps),
		FailedStep:   p.FailedStep,
		LastResult:   p.LastResult,
		StepStatuses: append([]StepStatus(nil), p.StepStatuses...),
		StepNotes:    append([]string(nil), p.StepNotes...),
	}
}
