package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"folio"

	"github.com/google/subcommands"
)

type buyCmd struct {
	quantity int64
	price    float64
	date     string
	note     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of shares of a security" }
func (*buyCmd) Usage() string {
	return `pfo buy -q <quantity> -p <price> [-d <date>] [-note <note>] <ticker>

  Debits the cash balance by quantity x price, appends a BUY transaction
  to the ledger and merges the shares into the holding for the ticker
  using a quantity-weighted average cost basis.

Usage Examples:
$ pfo buy -q 10 -p 150.00 AAPL
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.quantity, "q", 0, "Number of shares to buy.")
	f.Float64Var(&c.price, "p", 0, "Unit price paid.")
	f.StringVar(&c.date, "d", "", "Purchase date (YYYY-MM-DD or RFC3339). Defaults to now.")
	f.StringVar(&c.note, "note", "", "Optional note attached to the holding and transaction.")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	when, err := folio.ParseWhen(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	positions := folio.NewPositions(store)
	holding, err := positions.AddPosition(f.Arg(0), c.quantity, c.price, when, c.note)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	cash, err := positions.CashBalance()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Bought %d %s (holding %s now %d shares, cost basis %s). Cash balance %s\n",
		c.quantity, holding.Ticker, holding.ID, holding.Quantity, holding.CostBasis, cash)
	return subcommands.ExitSuccess
}
