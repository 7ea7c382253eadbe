package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"optrader/internal/broker"
)

type accountCmd struct{}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "show account cash, equity, and buying power" }
func (*accountCmd) Usage() string {
	return `optrader account

  Shows the account summary for the active mode. In real mode the brokerage
  account is queried directly; in simulated mode the local portfolio is
  authoritative.
`
}

func (*accountCmd) SetFlags(*flag.FlagSet) {}

func (c *accountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	info := env.engine.Account(env.pf)
	if ab, ok := env.backend.(*broker.AlpacaBackend); ok {
		live, err := ab.Account(ctx)
		if err != nil {
			return fail(err)
		}
		info = *live
	}

	fmt.Printf("mode:            %s\n", env.engine.Mode())
	fmt.Printf("cash:            %.2f\n", info.Cash)
	fmt.Printf("equity:          %.2f\n", info.Equity)
	fmt.Printf("buying power:    %.2f\n", info.BuyingPower)
	fmt.Printf("portfolio value: %.2f\n", info.PortfolioValue)
	return subcommands.ExitSuccess
}
