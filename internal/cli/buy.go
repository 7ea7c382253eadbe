package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type buyCmd struct {
	orderFlags
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy an option contract or equity" }
func (*buyCmd) Usage() string {
	return `optrader buy -symbol <sym> [-qty <n>] [-limit <price>]
optrader buy -underlying AAPL -expiration 2025-06-20 -strike 150 -type call [-qty <n>] [-limit <price>]

  Submits a buy order. Market orders fill at the current quote; limit orders
  fill when the limit is at-or-better, otherwise they rest until the monitor
  re-checks them.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *buyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		return fail(err)
	}
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	ord, err := env.engine.Buy(ctx, env.pf, req)
	if err != nil {
		return fail(err)
	}
	printOrder(ord)
	return subcommands.ExitSuccess
}
