package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ilsfeed/internal/harness"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Trace bool
}

// SimulateResult reports the outcome of one scenario.
type SimulateResult struct {
	File     string         `json:"file"`
	Scenario string         `json:"scenario"`
	Pass     bool           `json:"pass"`
	Errors   []string       `json:"errors,omitempty"`
	Trace    *harness.Trace `json:"trace,omitempty"`
}

type simulateReport []SimulateResult

func (r simulateReport) String() string {
	var b strings.Builder
	passed := 0
	for i, res := range r {
		if i > 0 {
			b.WriteString("\n")
		}
		status := "FAIL"
		if res.Pass {
			status = "PASS"
			passed++
		}
		fmt.Fprintf(&b, "%s %s (%s)", status, res.Scenario, res.File)
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "\n  - %s", e)
		}
		if res.Trace != nil {
			if data, err := harness.MarshalTrace(res.Trace); err == nil {
				b.WriteString("\n")
				b.Write(data)
			}
		}
	}
	fmt.Fprintf(&b, "\n%d/%d scenarios passed", passed, len(r))
	return b.String()
}

// NewSimulateCommand creates the simulate command, which replays scripted
// change scenarios through the aggregator on a simulated clock.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario-file-or-dir>...",
		Short: "Run aggregator scenarios against an in-memory store",
		Long: `Run YAML scenarios describing scripted source events and injected
failures. Each scenario runs against a fresh in-memory database and its
expectations are checked against the resulting trace.

Exit code is 1 if any scenario fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the cycle trace in output")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts *SimulateOptions, args []string) error {
	files, err := scenarioFiles(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	out := opts.formatter(cmd)
	report := make(simulateReport, 0, len(files))
	failed := 0
	for _, path := range files {
		out.VerboseLog("running %s", path)
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid scenario %s", path), err)
		}
		res, err := harness.Run(cmd.Context(), scenario)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("scenario %s could not run", path), err)
		}
		entry := SimulateResult{
			File:     path,
			Scenario: scenario.Name,
			Pass:     res.Pass,
			Errors:   res.Errors,
		}
		if opts.Trace {
			trace := res.Trace
			entry.Trace = &trace
		}
		if !res.Pass {
			failed++
		}
		report = append(report, entry)
	}

	if err := out.Success(report); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(files)))
	}
	return nil
}

// scenarioFiles expands directories to the YAML files directly inside
// them, sorted by name.
func scenarioFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
