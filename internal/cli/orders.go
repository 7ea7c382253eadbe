package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type ordersCmd struct {
	status string
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "list orders" }
func (*ordersCmd) Usage() string {
	return `optrader orders [-status pending|filled|cancelled|rejected]

  Lists orders, newest last, optionally filtered by status.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.status, "status", "", "Filter by order status.")
}

func (c *ordersCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := buildEnv()
	if err != nil {
		return fail(err)
	}
	defer env.Close()

	snap := env.engine.Snapshot(env.pf)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tSIDE\tQTY\tTYPE\tSTATUS\tFILL\tSUBMITTED")
	n := 0
	for _, o := range snap.Orders {
		if c.status != "" && string(o.Status) != c.status {
			continue
		}
		fill := "-"
		if o.FillPrice != nil {
			fill = fmt.Sprintf("%.2f", *o.FillPrice)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.Symbol, o.Side, o.Qty, o.Type, o.Status, fill,
			o.SubmittedAt.Local().Format("2006-01-02 15:04:05"))
		n++
	}
	w.Flush()
	if n == 0 {
		fmt.Println("no orders")
	}
	return subcommands.ExitSuccess
}
