package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"apicheck/internal/common/config"
	"apicheck/internal/common/logging"
	"apicheck/internal/common/metrics"
	"apicheck/internal/harness/httpexec"
	"apicheck/internal/harness/mock"
	"apicheck/internal/harness/report"
	"apicheck/internal/harness/runner"
	"apicheck/internal/harness/scenario"
	"apicheck/internal/harness/steps"
)

// flagValues holds the persistent flags. A value is applied to the loaded
// config only when its flag was set on the command line.
type flagValues struct {
	baseURI     string
	timeout     time.Duration
	headers     map[string]string
	tags        string
	concurrency int
	report      string
	metricsFile string
	mocks       string
	logLevel    string
	logFormat   string
}

type app struct {
	configPath string
	noColor    bool
	flags      flagValues

	// rerunArgs repeats the selection and connection flags of this
	// invocation in printed rerun commands.
	rerunArgs []string
}

// rerunFlags are the persistent flags a rerun must repeat to select and
// reach the same scenarios. Output destinations are left out.
var rerunFlags = map[string]bool{
	"config":      true,
	"base-uri":    true,
	"timeout":     true,
	"header":      true,
	"tags":        true,
	"concurrency": true,
	"mocks":       true,
	"log-level":   true,
	"log-format":  true,
	"no-color":    true,
}

func (a *app) bindFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "path to a TOML config file")
	f.StringVar(&a.flags.baseURI, "base-uri", config.DefaultBaseURI, "base URI requests are sent to")
	f.DurationVar(&a.flags.timeout, "timeout", 10*time.Second, "per-request timeout")
	f.StringToStringVar(&a.flags.headers, "header", nil, "default request header as name=value (repeatable)")
	f.StringVar(&a.flags.tags, "tags", "@API", "tag expression selecting scenarios, e.g. '@API && ~@slow'")
	f.IntVar(&a.flags.concurrency, "concurrency", 1, "number of scenarios run at once")
	f.StringVar(&a.flags.report, "report", "", "write a JSON report to this path")
	f.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this path")
	f.StringVar(&a.flags.mocks, "mocks", "", "YAML file of mock registrations preloaded into every scenario")
	f.StringVar(&a.flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&a.flags.logFormat, "log-format", "text", "log format: text or json")
	f.BoolVar(&a.noColor, "no-color", false, "disable colored output")
}

// load builds the effective configuration: environment and config file first,
// then flags that were explicitly set.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	changed := map[string]bool{}
	a.rerunArgs = a.rerunArgs[:0]
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
		a.rerunArgs = append(a.rerunArgs, a.rerunFlag(f)...)
	})
	a.flags.apply(cfg, changed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	return cfg, nil
}

func (a *app) rerunFlag(f *pflag.Flag) []string {
	if !rerunFlags[f.Name] {
		return nil
	}
	if f.Name != "header" {
		return []string{"--" + f.Name + "=" + f.Value.String()}
	}
	// the map value prints as [k=v,...], so repeat the flag per header
	names := slices.Sorted(maps.Keys(a.flags.headers))
	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, "--header="+k+"="+a.flags.headers[k])
	}
	return out
}

func (f *flagValues) apply(cfg *config.Config, changed map[string]bool) {
	if changed["base-uri"] {
		cfg.BaseURI = f.baseURI
	}
	if changed["timeout"] {
		cfg.Timeout = f.timeout
	}
	if changed["header"] {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(f.headers))
		}
		for k, v := range f.headers {
			cfg.Headers[k] = v
		}
	}
	if changed["tags"] {
		cfg.Tags = f.tags
	}
	if changed["concurrency"] {
		cfg.Concurrency = f.concurrency
	}
	if changed["report"] {
		cfg.Report = f.report
	}
	if changed["metrics-file"] {
		cfg.MetricsFile = f.metricsFile
	}
	if changed["mocks"] {
		cfg.MockFixtures = f.mocks
	}
	if changed["log-level"] {
		cfg.LogLevel = f.logLevel
	}
	if changed["log-format"] {
		cfg.LogFormat = f.logFormat
	}
}

// scenarioConfig derives the per-scenario configuration shared by both engines.
func scenarioConfig(cfg *config.Config) (scenario.Config, error) {
	sc := scenario.Config{
		BaseURI:  cfg.BaseURI,
		Executor: httpexec.NewExecutor(cfg.Timeout, httpexec.WithDefaultHeaders(cfg.Headers)),
	}
	if cfg.MockFixtures != "" {
		fixtures, err := mock.LoadFixtures(cfg.MockFixtures)
		if err != nil {
			return scenario.Config{}, err
		}
		sc.Fixtures = fixtures
	}
	return sc, nil
}

// runOptions selects scenarios for one native run.
type runOptions struct {
	paths []string
	name  *regexp.Regexp
	out   io.Writer
}

// runOnce loads, filters and runs scenarios, then writes every configured output.
// It returns errScenariosFailed when a scenario failed.
func (a *app) runOnce(ctx context.Context, cfg *config.Config, opts runOptions) error {
	paths := opts.paths
	if len(paths) == 0 {
		paths = cfg.Features
	}
	scenarios, err := runner.LoadFeatures(paths...)
	if err != nil {
		return err
	}
	filter, err := runner.ParseTagFilter(cfg.Tags)
	if err != nil {
		return err
	}
	scenarios = filter.Filter(scenarios)
	if opts.name != nil {
		selected := scenarios[:0]
		for _, s := range scenarios {
			if opts.name.MatchString(s.Name) {
				selected = append(selected, s)
			}
		}
		scenarios = selected
	}
	if len(scenarios) == 0 {
		logging.Warn("No scenarios selected", "paths", paths, "tags", filter.String())
	}

	sc, err := scenarioConfig(cfg)
	if err != nil {
		return err
	}
	engine := runner.NewEngine(steps.Default(), sc, runner.WithConcurrency(cfg.Concurrency))
	run := engine.Run(ctx, scenarios)

	console := &report.Console{
		Out:     opts.out,
		Command: append([]string{filepath.Base(os.Args[0]), "run"}, a.rerunArgs...),
		NoColor: a.noColor,
	}
	console.PrintSummary(run)

	if cfg.Report != "" {
		if err := report.WriteFile(cfg.Report, run); err != nil {
			return err
		}
		logging.Info("Report written", "path", cfg.Report)
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if !run.Passed() {
		return errScenariosFailed
	}
	return nil
}
