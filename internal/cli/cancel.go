package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type cancelCmd struct{}

func (*cancelCmd) Name() string     { return "cancel" }
func (*cancelCmd) Synopsis() string { return "cancel a pending order" }
func (*cancelCmd) Usage() string {
	return `optrader cancel <order-id>

  Cancels a pending order. An order whose fill is already recorded cannot be
  cancelled; the fill wins.
`
}

func (*cancelCmd) SetFlags(*flag.FlagSet) {}

func (c *cancelCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("usage: optrader cancel <order-id>"))
	}
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	if err := env.engine.Cancel(ctx, env.pf, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Printf("order %s cancelled\n", f.Arg(0))
	return subcommands.ExitSuccess
}
