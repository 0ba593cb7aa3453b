// Package suite runs the step registry under godog, so feature files get
// godog's formatters (pretty, cucumber json, junit) and its tag handling.
package suite

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/cucumber/godog"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/metrics"
	"apicheck/internal/harness/scenario"
	"apicheck/internal/harness/steps"
)

type stateKey struct{}

var errNoState = errors.New("scenario state not initialized")

// Bridge adapts a steps.Registry to godog. Every step is routed through one
// catch-all godog step; the registry does the matching.
type Bridge struct {
	registry *steps.Registry
	config   scenario.Config
}

// NewBridge creates a Bridge. cfg is copied into every scenario.
func NewBridge(registry *steps.Registry, cfg scenario.Config) *Bridge {
	return &Bridge{registry: registry, config: cfg}
}

// InitializeScenario is a godog ScenarioInitializer.
func (b *Bridge) InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, p *godog.Scenario) (context.Context, error) {
		// resolve everything up front so no request is sent for a broken scenario
		for _, st := range p.Steps {
			if _, err := b.registry.Resolve(st.Text); err != nil {
				return ctx, err
			}
		}
		state := scenario.New(ctx, b.config, p.Name)
		ctx = logging.WithScenario(ctx, state.ID(), p.Name)
		return context.WithValue(ctx, stateKey{}, state), nil
	})

	sc.Step(`^(.+)$`, func(ctx context.Context, text string) (context.Context, error) {
		state, ok := StateFromContext(ctx)
		if !ok {
			return ctx, errNoState
		}
		return ctx, b.registry.Dispatch(ctx, state, text)
	})

	sc.After(func(ctx context.Context, p *godog.Scenario, err error) (context.Context, error) {
		status := "passed"
		if err != nil {
			status = "failed"
			logging.FromContext(ctx).Warn("Scenario failed", "error", err)
		}
		metrics.RecordScenario(status)
		return ctx, nil
	})
}

// StateFromContext returns the scenario state attached by the Before hook.
func StateFromContext(ctx context.Context) (*scenario.Context, bool) {
	state, ok := ctx.Value(stateKey{}).(*scenario.Context)
	return state, ok
}

// Options selects what godog runs and how it reports.
type Options struct {
	Name        string
	Format      string
	Paths       []string
	Tags        string
	Concurrency int
	Strict      bool
	NoColors    bool
	Output      io.Writer
	TestingT    *testing.T
}

// Run executes the feature files and returns godog's exit status.
func (b *Bridge) Run(opts Options) int {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	if opts.Name == "" {
		opts.Name = "apicheck"
	}

	return godog.TestSuite{
		Name:                opts.Name,
		ScenarioInitializer: b.InitializeScenario,
		Options: &godog.Options{
			Output:      opts.Output,
			Format:      opts.Format,
			Paths:       opts.Paths,
			Tags:        opts.Tags,
			Concurrency: opts.Concurrency,
			Strict:      opts.Strict,
			NoColors:    opts.NoColors,
			TestingT:    opts.TestingT,
		},
	}.Run()
}
