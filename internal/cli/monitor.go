package cli

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"optrader/internal/domain"
	"optrader/internal/monitor"
)

type monitorCmd struct {
	interval time.Duration
}

func (*monitorCmd) Name() string     { return "monitor" }
func (*monitorCmd) Synopsis() string { return "run the mark-to-market loop in the foreground" }
func (*monitorCmd) Usage() string {
	return `optrader monitor [-interval <duration>]

  Periodically fetches quotes for open positions, revalues the portfolio,
  fills resting limit orders that have crossed, and appends equity snapshots.
  Runs until interrupted.
`
}

func (c *monitorCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "interval", 0, "Tick interval. Defaults to monitor.interval_secs from config.")
}

func (c *monitorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	interval := time.Duration(env.cfg.Monitor.IntervalSecs) * time.Second
	if c.interval > 0 {
		interval = c.interval
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := monitor.New(env.engine, env.pf, env.quotes, env.snaps, monitor.Options{
		Interval:        interval,
		RateLimitPerMin: env.cfg.Monitor.RateLimitPerMin,
		OnValuation: func(val domain.Valuation) {
			fmt.Printf("%s cash %.2f equity %.2f unrealized %+.2f positions %d missing %d\n",
				val.Time.Local().Format("15:04:05"), val.Cash, val.Equity,
				val.UnrealizedPL, len(val.Positions), len(val.Missing))
		},
	}, env.log)

	if err := m.Run(ctx); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
