package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ilsfeed/internal/queue"
)

// Classification is the routing decision for one cause string.
type Classification struct {
	Cause string `json:"cause"`
	queue.Route
}

func (c Classification) String() string {
	if c.Skip {
		return fmt.Sprintf("%q -> skip", c.Cause)
	}
	return fmt.Sprintf("%q -> %s (priority %d)", c.Cause, c.Queue, c.Priority)
}

type classificationList []Classification

func (l classificationList) String() string {
	lines := make([]string, len(l))
	for i, c := range l {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// NewClassifyCommand creates the classify command, which shows where the
// router would send entries with the given causes.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <cause>...",
		Short: "Show how the router classifies causes",
		Example: `  ilsfeed classify "Bib Delete" "Item Status Changed"
  ilsfeed classify --format json "856 Link Changed"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make(classificationList, 0, len(args))
			for _, cause := range args {
				out = append(out, Classification{Cause: cause, Route: queue.Classify(cause)})
			}
			return rootOpts.formatter(cmd).Success(out)
		},
	}
}
