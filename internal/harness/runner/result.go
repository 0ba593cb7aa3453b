package runner

import (
	"fmt"
	"time"

	"apicheck/internal/common/types"
	"apicheck/internal/harness/steps"
)

// Status is the outcome of a step or scenario.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusUndefined Status = "undefined"
	StatusAmbiguous Status = "ambiguous"
)

// Scenario is one ordered list of step texts to execute with fresh state.
type Scenario struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Steps []string `json:"steps"`

	// URI and Line locate the scenario when it was loaded from a feature file.
	URI  string `json:"uri,omitempty"`
	Line int    `json:"line,omitempty"`
}

// Location returns "uri:line", or the empty string for in-memory scenarios.
func (s Scenario) Location() string {
	if s.URI == "" {
		return ""
	}
	if s.Line == 0 {
		return s.URI
	}
	return fmt.Sprintf("%s:%d", s.URI, s.Line)
}

// StepResult records the execution of one step.
type StepResult struct {
	Text     string        `json:"text"`
	Pattern  string        `json:"pattern,omitempty"`
	Args     steps.Args    `json:"args,omitempty"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	Err error `json:"-"`
}

// Result records the execution of one scenario.
type Result struct {
	ID       types.ScenarioID `json:"id"`
	Scenario Scenario         `json:"scenario"`
	Status   Status           `json:"status"`
	Steps    []StepResult     `json:"steps"`
	Duration time.Duration    `json:"duration_ns"`
}

// Passed reports whether every step passed.
func (r Result) Passed() bool {
	return r.Status == StatusPassed
}

// FailedStep returns the step that ended the scenario, if any.
func (r Result) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Status != StatusPassed && s.Status != StatusSkipped {
			return s, true
		}
	}
	return StepResult{}, false
}

// Err returns the error that ended the scenario, or nil.
func (r Result) Err() error {
	if s, ok := r.FailedStep(); ok {
		return s.Err
	}
	return nil
}

// RunResult collects all scenario results of a run in input order.
type RunResult struct {
	RunID     types.RunID   `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Scenarios []Result      `json:"scenarios"`
}

// Passed reports whether every scenario passed.
func (r *RunResult) Passed() bool {
	for _, s := range r.Scenarios {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// Counts returns the number of passed and failed scenarios.
func (r *RunResult) Counts() (passed, failed int) {
	for _, s := range r.Scenarios {
		if s.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
