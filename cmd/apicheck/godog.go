package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apicheck/internal/common/metrics"
	"apicheck/internal/harness/steps"
	"apicheck/internal/harness/suite"
)

func newGodogCommand(app *app) *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "godog [paths...]",
		Short: "Run feature files through godog and its formatters",
		Long: `Run feature files through godog. Formatters can be combined, e.g.
--format pretty,cucumber:report.json,junit:report.xml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load(cmd)
			if err != nil {
				return err
			}
			sc, err := scenarioConfig(cfg)
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = cfg.Features
			}

			status := suite.NewBridge(steps.Default(), sc).Run(suite.Options{
				Format:      format,
				Paths:       paths,
				Tags:        cfg.Tags,
				Concurrency: cfg.Concurrency,
				Strict:      strict,
				NoColors:    app.noColor,
				Output:      cmd.OutOrStdout(),
			})

			if cfg.MetricsFile != "" {
				if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			if status != 0 {
				return errScenariosFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "godog formatter(s): pretty, progress, cucumber[:file], junit[:file]")
	cmd.Flags().BoolVar(&strict, "strict", true, "fail on pending or undefined steps")
	return cmd
}
