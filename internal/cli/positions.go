package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"optrader/internal/domain"
)

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list open positions with current valuation" }
func (*positionsCmd) Usage() string {
	return `optrader positions

  Lists open positions marked to the freshest quotes available. Symbols with
  no quote are shown at cost.
`
}

func (*positionsCmd) SetFlags(*flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	snap := env.engine.Snapshot(env.pf)
	if len(snap.Positions) == 0 {
		fmt.Println("no open positions")
		return subcommands.ExitSuccess
	}

	quotes := make(map[string]domain.Quote, len(snap.Positions))
	for i := range snap.Positions {
		sym := snap.Positions[i].Symbol
		if q, err := env.quotes.GetQuote(ctx, sym); err == nil {
			quotes[sym] = q
		}
	}
	val, err := env.engine.MarkToMarket(ctx, env.pf, quotes)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tQTY\tAVG ENTRY\tLAST\tMARKET VALUE\tUNREALIZED P&L")
	for _, pv := range val.Positions {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%+.2f\n",
			pv.Position.Symbol, pv.Position.Qty, pv.Position.AvgEntryPrice,
			pv.LastPrice, pv.MarketValue, pv.UnrealizedPL)
	}
	for _, sym := range val.Missing {
		pos := snap.Positions
		for i := range pos {
			if pos[i].Symbol == sym {
				fmt.Fprintf(w, "%s\t%d\t%.2f\t-\t%.2f\t-\n",
					sym, pos[i].Qty, pos[i].AvgEntryPrice, pos[i].CostBasis())
			}
		}
	}
	w.Flush()
	fmt.Printf("\ncash %.2f  equity %.2f  unrealized %+.2f\n", val.Cash, val.Equity, val.UnrealizedPL)
	return subcommands.ExitSuccess
}
