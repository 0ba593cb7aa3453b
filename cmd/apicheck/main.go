package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var longHelp = strings.TrimSpace(`
Run declarative HTTP contract scenarios written in Gherkin.

Steps build a request, send it to the configured base URI (or resolve it from
a registered mock), and assert on the status, JSON body and headers of the
response. Every scenario runs with its own state; nothing leaks between them.

Configuration is read from APICHECK_* environment variables, an optional
.env file and an optional TOML file (--config). Flags override both.
`)

var exampleUsage = strings.TrimSpace(`
  apicheck run features/
  apicheck run --base-uri http://localhost:8080 --tags '@API && ~@slow'
  apicheck godog --format cucumber:report.json features/users.feature
  apicheck watch features/
  apicheck steps
`)

// errScenariosFailed is returned when the run completed but not every scenario passed.
var errScenariosFailed = errors.New("scenarios failed")

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errScenariosFailed) {
			fmt.Fprintln(os.Stderr, "apicheck:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	app := &app{}

	root := &cobra.Command{
		Use:           "apicheck",
		Short:         "Declarative HTTP contract test runner",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.bindFlags(root)

	root.AddCommand(
		newRunCommand(app),
		newGodogCommand(app),
		newWatchCommand(app),
		newStepsCommand(),
	)
	return root
}
