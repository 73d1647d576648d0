package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type watermarkLister interface {
	ListWatermarks(ctx context.Context) (map[string]time.Time, error)
}

// WatermarkEntry is one named watermark in command output.
type WatermarkEntry struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Set   bool   `json:"set"`
}

func (e WatermarkEntry) String() string {
	if !e.Set {
		return e.Name + " (unset)"
	}
	return e.Name + " " + e.Value
}

type watermarkList []WatermarkEntry

func (l watermarkList) String() string {
	if len(l) == 0 {
		return "no watermarks stored"
	}
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// NewWatermarkCommand creates the watermark command group.
func NewWatermarkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inspect or move loop watermarks",
		Long: `Inspect or move the persisted watermarks of the aggregator and router.

Moving a watermark back replays changes from that point; moving it forward
skips them.`,
	}
	cmd.AddCommand(newWatermarkGetCommand(rootOpts))
	cmd.AddCommand(newWatermarkSetCommand(rootOpts))
	cmd.AddCommand(newWatermarkListCommand(rootOpts))
	return cmd
}

func newWatermarkGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a watermark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, opts, func(ctx context.Context, st stateHandle) error {
				ts, ok, err := st.GetWatermark(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read watermark", err)
				}
				return opts.formatter(cmd).Success(WatermarkEntry{
					Name:  args[0],
					Value: describeWatermark(ts, ok),
					Set:   ok,
				})
			})
		},
	}
}

func newWatermarkSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <rfc3339-time>",
		Short: "Overwrite a watermark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := time.Parse(time.RFC3339Nano, args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid time %q", args[1]), err)
			}
			return withState(cmd, opts, func(ctx context.Context, st stateHandle) error {
				if err := st.SetWatermark(ctx, args[0], ts); err != nil {
					return WrapExitError(ExitFailure, "failed to write watermark", err)
				}
				return opts.formatter(cmd).Success(WatermarkEntry{
					Name:  args[0],
					Value: describeWatermark(ts, true),
					Set:   true,
				})
			})
		},
	}
}

func newWatermarkListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored watermark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd, opts, func(ctx context.Context, st stateHandle) error {
				lister, ok := st.(watermarkLister)
				if !ok {
					return NewExitError(ExitCommandError, "state backend cannot list watermarks")
				}
				marks, err := lister.ListWatermarks(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list watermarks", err)
				}
				names := make([]string, 0, len(marks))
				for n := range marks {
					names = append(names, n)
				}
				sort.Strings(names)
				out := make(watermarkList, 0, len(names))
				for _, n := range names {
					out = append(out, WatermarkEntry{Name: n, Value: describeWatermark(marks[n], true), Set: true})
				}
				return opts.formatter(cmd).Success(out)
			})
		},
	}
}
