// Package runner executes scenarios against a step registry. Each scenario
// gets its own scenario.Context; scenarios run on a bounded worker pool and
// their steps run strictly in order.
package runner

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/metrics"
	"apicheck/internal/common/types"
	"apicheck/internal/harness/domain"
	"apicheck/internal/harness/scenario"
	"apicheck/internal/harness/steps"
)

// Engine runs scenarios. It is safe for concurrent use.
type Engine struct {
	registry    *steps.Registry
	config      scenario.Config
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of scenarios running at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an Engine. cfg is copied into every scenario.Context.
func NewEngine(registry *steps.Registry, cfg scenario.Config, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		config:      cfg,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every scenario and returns their results in input order.
// A failing scenario never stops the others.
func (e *Engine) Run(ctx context.Context, scenarios []Scenario) *RunResult {
	runID := logging.RunIDFromContext(ctx)
	if runID.IsEmpty() {
		runID = types.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	logger := logging.FromContext(ctx)
	logger.Info("Run started", "scenarios", len(scenarios), "concurrency", e.concurrency)

	run := &RunResult{
		RunID:     runID,
		StartedAt: time.Now(),
		Scenarios: make([]Result, len(scenarios)),
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, s := range scenarios {
		g.Go(func() error {
			run.Scenarios[i] = e.RunScenario(ctx, s)
			return nil
		})
	}
	// scenario failures are carried in the results; no goroutine returns an error
	_ = g.Wait()

	run.Duration = time.Since(run.StartedAt)
	passed, failed := run.Counts()
	logger.Info("Run finished", "passed", passed, "failed", failed, "duration", run.Duration)
	return run
}

// RunScenario executes one scenario with a fresh scenario.Context.
// Every step is resolved before the first one runs, so an undefined or
// ambiguous step fails the scenario without side effects.
func (e *Engine) RunScenario(ctx context.Context, s Scenario) Result {
	start := time.Now()
	sc := scenario.New(ctx, e.config, s.Name)
	ctx = logging.WithScenario(ctx, sc.ID(), s.Name)
	logger := logging.FromContext(ctx)

	result := Result{ID: sc.ID(), Scenario: s, Steps: make([]StepResult, len(s.Steps))}

	matches := make([]steps.Match, len(s.Steps))
	resolved := true
	for i, text := range s.Steps {
		result.Steps[i] = StepResult{Text: text, Status: StatusSkipped}
		m, err := e.registry.Resolve(text)
		if err != nil {
			result.Steps[i].Status = resolveStatus(err)
			result.Steps[i].Err = err
			result.Steps[i].Error = err.Error()
			resolved = false
			continue
		}
		matches[i] = m
		result.Steps[i].Pattern = m.Definition.Pattern
		result.Steps[i].Args = m.Args
	}

	if resolved {
		for i, m := range matches {
			stepStart := time.Now()
			err := m.Run(ctx, sc)
			step := &result.Steps[i]
			step.Duration = time.Since(stepStart)
			if err != nil {
				step.Status = StatusFailed
				step.Err = err
				step.Error = err.Error()
				metrics.RecordStep(string(StatusFailed), step.Duration)
				logger.Warn("Step failed", "step", step.Text, "args", step.Args, "error", err)
				break
			}
			step.Status = StatusPassed
			metrics.RecordStep(string(StatusPassed), step.Duration)
			logger.Debug("Step passed", "step", step.Text, "duration", step.Duration)
		}
	}

	result.Status = StatusPassed
	if _, failed := result.FailedStep(); failed {
		result.Status = StatusFailed
	}
	result.Duration = time.Since(start)
	metrics.RecordScenario(string(result.Status))
	logger.Info("Scenario finished", "status", result.Status, "duration", result.Duration)
	return result
}

func resolveStatus(err error) Status {
	switch {
	case errors.Is(err, domain.ErrAmbiguousStep):
		return StatusAmbiguous
	case errors.Is(err, domain.ErrUndefinedStep):
		return StatusUndefined
	default:
		return StatusFailed
	}
}
