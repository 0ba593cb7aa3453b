package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/types"
)

func newRunCommand(app *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files with the built-in engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load(cmd)
			if err != nil {
				return err
			}
			opts := runOptions{paths: args, out: cmd.OutOrStdout()}
			if name != "" {
				if opts.name, err = regexp.Compile(name); err != nil {
					return fmt.Errorf("invalid --name: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithRunID(ctx, types.NewRunID())

			return app.runOnce(ctx, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only run scenarios whose name matches this regular expression")
	return cmd
}
