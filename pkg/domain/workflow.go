package domain

import (
	"fmt"
	"slices"
	"time"
)

// StepCompleted is the terminal sentinel a workflow's CurrentStep takes once
// every step has been passed.
const StepCompleted = "completed"

// Workflow is an ordered, forward-only step machine embedded in a session payload.
type Workflow struct {
	Steps       []string   `json:"steps" mapstructure:"steps"`
	CurrentStep string     `json:"current_step" mapstructure:"current_step"`
	StartedAt   time.Time  `json:"started_at" mapstructure:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" mapstructure:"completed_at"`
}

// ValidateSteps checks that a step sequence is non-empty, has unique non-empty
// names, and does not use the terminal sentinel as a step.
func ValidateSteps(steps []string) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: empty step sequence", ErrInvalidWorkflow)
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		switch {
		case step == "":
			return fmt.Errorf("%w: empty step name", ErrInvalidWorkflow)
		case step == StepCompleted:
			return fmt.Errorf("%w: %q is reserved", ErrInvalidWorkflow, StepCompleted)
		case seen[step]:
			return fmt.Errorf("%w: duplicate step %q", ErrInvalidWorkflow, step)
		}
		seen[step] = true
	}
	return nil
}

// NewWorkflow starts a workflow at its first step.
func NewWorkflow(steps []string, now time.Time) (*Workflow, error) {
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}
	return &Workflow{
		Steps:       slices.Clone(steps),
		CurrentStep: steps[0],
		StartedAt:   now,
	}, nil
}

// IsCompleted reports whether the terminal sentinel was reached.
func (w *Workflow) IsCompleted() bool {
	return w.CurrentStep == StepCompleted
}

// Advance moves exactly one step forward, stamping CompletedAt when the last
// step is passed. Advancing a completed workflow changes nothing.
func (w *Workflow) Advance(now time.Time) error {
	if w.IsCompleted() {
		return nil
	}
	i := slices.Index(w.Steps, w.CurrentStep)
	if i < 0 {
		return fmt.Errorf("%w: current step %q is not in the sequence", ErrCorruptWorkflow, w.CurrentStep)
	}
	if i == len(w.Steps)-1 {
		w.CurrentStep = StepCompleted
		completed := now
		w.CompletedAt = &completed
		return nil
	}
	w.CurrentStep = w.Steps[i+1]
	return nil
}

// Validate checks that the stored instance is one Advance could have produced.
func (w *Workflow) Validate() error {
	if err := ValidateSteps(w.Steps); err != nil {
		return err
	}
	if w.IsCompleted() {
		if w.CompletedAt == nil {
			return fmt.Errorf("%w: completed without completed_at", ErrCorruptWorkflow)
		}
		return nil
	}
	if !slices.Contains(w.Steps, w.CurrentStep) {
		return fmt.Errorf("%w: current step %q is not in the sequence", ErrCorruptWorkflow, w.CurrentStep)
	}
	if w.CompletedAt != nil {
		return fmt.Errorf("%w: completed_at set on an unfinished workflow", ErrCorruptWorkflow)
	}
	return nil
}

// Clone returns a deep copy.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	c := *w
	c.Steps = slices.Clone(w.Steps)
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
