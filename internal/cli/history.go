package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type historyCmd struct {
	symbol string
	limit  int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recorded fills from the journal" }
func (*historyCmd) Usage() string {
	return `optrader history [-symbol <sym>] [-n <limit>]

  Lists fills from the journal, newest first, with realized P&L.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Filter by symbol.")
	f.IntVar(&c.limit, "n", 20, "Maximum number of fills to show. 0 shows all.")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	fills, err := env.journal.ListFills(ctx, env.engine.Mode(), strings.ToUpper(c.symbol), c.limit)
	if err != nil {
		return fail(err)
	}
	if len(fills) == 0 {
		fmt.Println("no fills recorded")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSYMBOL\tSIDE\tQTY\tPRICE\tREALIZED P&L")
	for _, tx := range fills {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%+.2f\n",
			tx.Timestamp.Local().Format("2006-01-02 15:04:05"),
			tx.Symbol, tx.Side, tx.Qty, tx.Price, tx.RealizedPL)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
