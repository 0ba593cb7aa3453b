package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apicheck/internal/harness/steps"
)

func newStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the available step patterns",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, d := range steps.Default().Definitions() {
				fmt.Fprintln(cmd.OutOrStdout(), d.Pattern)
			}
		},
	}
}
