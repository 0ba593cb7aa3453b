// Package report renders run results as a JSON document and as a console summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"

	"apicheck/internal/harness/runner"
)

// Write encodes run as indented JSON.
func Write(w io.Writer, run *runner.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteFile writes the JSON report to path, creating parent directories.
func WriteFile(path string, run *runner.RunResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Console prints a human readable summary.
type Console struct {
	Out io.Writer

	// Command is the argv prefix used to build rerun commands for failed
	// scenarios. Rerun commands are omitted when it is empty.
	Command []string

	NoColor bool
}

// PrintScenario prints one scenario result as soon as it is known.
func (c *Console) PrintScenario(r runner.Result) {
	pass, fail, dim := c.colors()
	name := r.Scenario.Name
	if loc := r.Scenario.Location(); loc != "" {
		name += " " + dim.Sprintf("(%s)", loc)
	}
	if r.Passed() {
		fmt.Fprintf(c.Out, "%s %s\n", pass.Sprint("PASS"), name)
		return
	}
	fmt.Fprintf(c.Out, "%s %s\n", fail.Sprint("FAIL"), name)
	for _, s := range r.Steps {
		switch s.Status {
		case runner.StatusPassed:
			fmt.Fprintf(c.Out, "    %s %s\n", pass.Sprint("✓"), s.Text)
		case runner.StatusSkipped:
			fmt.Fprintf(c.Out, "    %s %s\n", dim.Sprint("-"), dim.Sprint(s.Text))
		default:
			fmt.Fprintf(c.Out, "    %s %s\n", fail.Sprint("✗"), s.Text)
			if len(s.Args) > 0 {
				fmt.Fprintf(c.Out, "      args: %v\n", []any(s.Args))
			}
			fmt.Fprintf(c.Out, "      %s: %s\n", s.Status, s.Error)
		}
	}
}

// PrintSummary prints every scenario followed by totals and rerun commands.
func (c *Console) PrintSummary(run *runner.RunResult) {
	for _, r := range run.Scenarios {
		c.PrintScenario(r)
	}

	pass, fail, _ := c.colors()
	passed, failed := run.Counts()
	fmt.Fprintln(c.Out)
	totals := fmt.Sprintf("%d scenarios (%d passed, %d failed) in %s", passed+failed, passed, failed, run.Duration.Round(time.Millisecond))
	if failed == 0 {
		fmt.Fprintln(c.Out, pass.Sprint(totals))
		return
	}
	fmt.Fprintln(c.Out, fail.Sprint(totals))

	if len(c.Command) == 0 {
		return
	}
	fmt.Fprintln(c.Out, "\nRerun failed scenarios:")
	for _, r := range run.Scenarios {
		if !r.Passed() {
			fmt.Fprintf(c.Out, "  %s\n", RerunCommand(c.Command, r.Scenario))
		}
	}
}

func (c *Console) colors() (pass, fail, dim *color.Color) {
	pass = color.New(color.FgGreen)
	fail = color.New(color.FgRed, color.Bold)
	dim = color.New(color.Faint)
	if c.NoColor {
		pass.DisableColor()
		fail.DisableColor()
		dim.DisableColor()
	}
	return pass, fail, dim
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// RerunCommand returns a shell command that runs only s.
func RerunCommand(prefix []string, s runner.Scenario) string {
	var b commandBuilder
	b.add(prefix...)
	b.add("--name", "^"+regexp.QuoteMeta(s.Name)+"$")
	if s.URI != "" {
		b.add(s.URI)
	}
	return b.String()
}
