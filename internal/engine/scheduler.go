package engine

import (
	"context"
	"time"

	"github.com/juju/clock"
)

// StepFunc is one cycle of a loop.
type StepFunc func(ctx context.Context) error

// RepeatWithFixedDelay runs step, waits delay on clk, and repeats until ctx
// is done. Step errors go to onError (which may be nil) and never stop the
// loop. Cancellation is checked between steps only; an in-flight step is
// never abandoned. Returns ctx.Err().
func RepeatWithFixedDelay(ctx context.Context, clk clock.Clock, delay time.Duration, step StepFunc, onError func(error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil && onError != nil {
			onError(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(delay):
		}
	}
}
