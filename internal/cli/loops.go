package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ilsfeed/internal/config"
	"github.com/roach88/ilsfeed/internal/engine"
	"github.com/roach88/ilsfeed/internal/pgstore"
	"github.com/roach88/ilsfeed/internal/queue"
	"github.com/roach88/ilsfeed/internal/source"
)

// LoopOptions holds flags shared by run, aggregate and route.
type LoopOptions struct {
	*RootOptions
	Once bool
}

// NewRunCommand creates the run command, which runs both loops until
// interrupted.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoopOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the aggregator and the router",
		Long: `Run both loops against the configured databases until SIGINT or SIGTERM.

With --once each loop performs a single step and the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoops(cmd, opts, true, true)
		},
	}
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run one step of each loop and exit")
	return cmd
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoopOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run the change aggregator only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoops(cmd, opts, true, false)
		},
	}
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run one cycle and exit")
	return cmd
}

// NewRouteCommand creates the route command.
func NewRouteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoopOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Run the queue router only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoops(cmd, opts, false, true)
		},
	}
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run one pass and exit")
	return cmd
}

func runLoops(cmd *cobra.Command, opts *LoopOptions, aggregate, route bool) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if aggregate {
		if err := cfg.RequireSource(); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}

	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	state, closeState, err := openState(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeState()

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	if !opts.Once {
		serveMetrics(ctx, cfg.MetricsAddr, reg, logger)
	}
	common := []engine.Option{engine.WithLogger(logger), engine.WithMetrics(metrics)}

	var agg *engine.Aggregator
	if aggregate {
		sources, err := source.Select(cfg.Source.Enabled)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		pool, err := pgstore.OpenPool(ctx, pgstore.PoolConfig{
			DSN:        cfg.Source.DSN,
			MaxConns:   cfg.Source.MaxConns,
			ViaBouncer: cfg.Source.ViaBouncer,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open source database", err)
		}
		defer pool.Close()
		agg = newAggregator(cfg, sources, pool, state, metrics, common)
	}

	var router *engine.Router
	if route {
		router = newRouter(cfg, state, common)
	}

	out := opts.formatter(cmd)
	if opts.Once {
		return stepOnce(ctx, out, agg, router)
	}

	g, gctx := errgroup.WithContext(ctx)
	if agg != nil {
		g.Go(func() error { return agg.Run(gctx) })
	}
	if router != nil {
		g.Go(func() error { return router.Run(gctx) })
	}
	logger.Info("ilsfeed started", "aggregate", aggregate, "route", route)
	if err := g.Wait(); !isShutdown(err) {
		return WrapExitError(ExitFailure, "loop stopped", err)
	}
	logger.Info("ilsfeed stopped")
	return nil
}

func newAggregator(cfg *config.Config, sources []source.Source, q source.Querier, state engine.StateStore, m *engine.Metrics, common []engine.Option) *engine.Aggregator {
	writer := engine.NewNotificationWriter(state,
		engine.WithBatchSize(cfg.Aggregator.BatchSize),
		engine.WithPriority(cfg.Aggregator.Priority),
		engine.WithWriterMetrics(m),
	)
	opts := append([]engine.Option{
		engine.WithInterval(cfg.Aggregator.Interval.Std()),
		engine.WithSafetyMargin(cfg.Aggregator.SafetyMargin.Std()),
		engine.WithLookback(cfg.Aggregator.Lookback.Std()),
		engine.WithWatermarkName(cfg.Aggregator.Watermark),
	}, common...)
	return engine.NewAggregator(sources, q, writer, state, opts...)
}

func newRouter(cfg *config.Config, state engine.StateStore, common []engine.Option) *engine.Router {
	opts := append([]engine.Option{
		engine.WithInterval(cfg.Router.Interval.Std()),
		engine.WithLookback(cfg.Router.Lookback.Std()),
		engine.WithFlushThreshold(cfg.Router.FlushThreshold),
		engine.WithWatermarkName(cfg.Router.Watermark),
	}, common...)
	return engine.NewRouter(state, state, state, opts...)
}

// stepSummary is the --once report.
type stepSummary struct {
	Cycle *engine.CycleResult `json:"cycle,omitempty"`
	Pass  *engine.PassResult  `json:"pass,omitempty"`
}

func (s stepSummary) String() string {
	var lines []string
	if c := s.Cycle; c != nil {
		lines = append(lines, fmt.Sprintf("cycle %s: polled %d, suppressed %d, written %d, watermark %s",
			c.ID, c.Polled, c.Suppressed, c.Written, c.Next.UTC().Format(time.RFC3339)))
	}
	if p := s.Pass; p != nil {
		names := make([]string, 0, len(p.Routed))
		for q := range p.Routed {
			names = append(names, string(q))
		}
		sort.Strings(names)
		routed := make([]string, 0, len(names))
		for _, n := range names {
			routed = append(routed, fmt.Sprintf("%s=%d", n, p.Routed[queue.Name(n)]))
		}
		lines = append(lines, fmt.Sprintf("pass %s: read %d, skipped %d, routed [%s], watermark %s",
			p.ID, p.Read, p.Skipped, strings.Join(routed, " "), p.PassStart.UTC().Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

// stepOnce runs one step of each non-nil loop. A failing step is exit
// code 1; the other loop still runs.
func stepOnce(ctx context.Context, out *OutputFormatter, agg *engine.Aggregator, router *engine.Router) error {
	var summary stepSummary
	var firstErr error

	if agg != nil {
		res, err := agg.Step(ctx)
		if err != nil {
			firstErr = err
		} else {
			summary.Cycle = &res
		}
	}
	if router != nil {
		res, err := router.Step(ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		} else if err == nil {
			summary.Pass = &res
		}
	}

	if firstErr != nil {
		return WrapExitError(ExitFailure, "step failed", firstErr)
	}
	return out.Success(summary)
}
