package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "look up the current price for a symbol" }
func (*quoteCmd) Usage() string {
	return `optrader quote <symbol>

  Prints the last price for an equity ticker or an OCC option symbol.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("usage: optrader quote <symbol>"))
	}
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	q, err := env.quotes.GetQuote(ctx, strings.ToUpper(f.Arg(0)))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s %.2f (%s)\n", q.Symbol, q.Price, q.Timestamp.Local().Format("2006-01-02 15:04:05"))
	return subcommands.ExitSuccess
}
