package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type sellCmd struct {
	orderFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell an option contract or equity" }
func (*sellCmd) Usage() string {
	return `optrader sell -symbol <sym> [-qty <n>] [-limit <price>]
optrader sell -underlying AAPL -expiration 2025-06-20 -strike 150 -type call [-qty <n>] [-limit <price>]

  Submits a sell order against a held position. Selling more than held is
  rejected unless trading.allow_short is enabled.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *sellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		return fail(err)
	}
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	ord, err := env.engine.Sell(ctx, env.pf, req)
	if err != nil {
		return fail(err)
	}
	printOrder(ord)
	return subcommands.ExitSuccess
}
