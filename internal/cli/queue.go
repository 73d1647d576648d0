package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ilsfeed/internal/queue"
)

type queueCounter interface {
	CountEntries(ctx context.Context, q queue.Name) (int, error)
}

// QueueDepth is the row count of one downstream queue.
type QueueDepth struct {
	Queue queue.Name `json:"queue"`
	Rows  int        `json:"rows"`
}

type queueDepths []QueueDepth

func (d queueDepths) String() string {
	lines := make([]string, len(d))
	for i, q := range d {
		lines[i] = fmt.Sprintf("%s\t%d", q.Queue, q.Rows)
	}
	return strings.Join(lines, "\n")
}

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the downstream queues",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "depth [generation|deletion|availability]...",
		Short: "Print how many rows each queue holds",
		Long: `Print the row count of the named queues, or of every queue when none
is named. Rows are removed by the indexer, so a growing depth means the
consumer is falling behind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := parseQueueNames(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid queue", err)
			}
			return withState(cmd, rootOpts, func(ctx context.Context, st stateHandle) error {
				counter, ok := st.(queueCounter)
				if !ok {
					return NewExitError(ExitCommandError, "state backend cannot count queue rows")
				}
				out := make(queueDepths, 0, len(names))
				for _, q := range names {
					n, err := counter.CountEntries(ctx, q)
					if err != nil {
						return WrapExitError(ExitFailure, "failed to count queue rows", err)
					}
					out = append(out, QueueDepth{Queue: q, Rows: n})
				}
				return rootOpts.formatter(cmd).Success(out)
			})
		},
	})
	return cmd
}

func parseQueueNames(args []string) ([]queue.Name, error) {
	if len(args) == 0 {
		return queue.Names, nil
	}
	out := make([]queue.Name, 0, len(args))
	for _, a := range args {
		q, err := queue.ParseName(a)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
