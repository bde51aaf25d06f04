package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"folio"

	"github.com/google/subcommands"
)

type holdingsCmd struct {
	ticker string
	totals bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list current holdings" }
func (*holdingsCmd) Usage() string {
	return `pfo holdings [-t <ticker>] [-totals]

  Lists the current holdings, optionally filtered to one ticker and with
  portfolio totals.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Only show the holding for this ticker.")
	f.BoolVar(&c.totals, "totals", false, "Include total invested and cash balance.")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	view, err := folio.NewPositions(store).GetHoldings(c.ticker, c.totals)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var md strings.Builder
	md.WriteString("# Holdings\n\n")
	if view.Count == 0 {
		md.WriteString("No holdings.\n")
	} else {
		md.WriteString("| Ticker | Quantity | Cost Basis | Invested | Acquired | Id |\n")
		md.WriteString("|---|---:|---:|---:|---|---|\n")
		for _, h := range view.Holdings {
			fmt.Fprintf(&md, "| %s | %d | %s | %s | %s | %s |\n",
				h.Ticker, h.Quantity, h.CostBasis, h.Invested(), h.AcquiredAt.Format(folio.DateFormat), h.ID)
		}
	}
	if view.Totals != nil {
		fmt.Fprintf(&md, "\nTotal invested **%s**, cash **%s**, total **%s**.\n",
			view.Totals.Invested, view.Totals.Cash, view.Totals.TotalValue)
	}
	printMarkdown(md.String())
	return subcommands.ExitSuccess
}
