package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"folio"

	"github.com/google/subcommands"
)

type sellCmd struct {
	quantity int64
	price    float64
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares out of a holding" }
func (*sellCmd) Usage() string {
	return `pfo sell [-q <quantity>] [-p <price>] <holding-id>

  Sells shares out of the holding at the realized price. Omitting -q sells
  the whole position; omitting -p realizes the recorded cost basis. The
  proceeds credit the cash balance and a SELL transaction is appended.

Usage Examples:
$ pfo sell -q 4 -p 160.00 6f1c6e2a-...
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.quantity, "q", 0, "Number of shares to sell. 0 sells the whole position.")
	f.Float64Var(&c.price, "p", 0, "Realized unit price. 0 uses the recorded cost basis.")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one holding id is required.")
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	info, err := folio.NewPositions(store).RemovePosition(f.Arg(0), c.quantity, c.price)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if info.Removed {
		fmt.Printf("Sold all %d %s for %s. Cash balance %s\n",
			info.QuantitySold, info.Transaction.Ticker, info.Proceeds, info.CashBalance)
	} else {
		fmt.Printf("Sold %d %s for %s, %d shares remaining. Cash balance %s\n",
			info.QuantitySold, info.Transaction.Ticker, info.Proceeds, info.Remaining, info.CashBalance)
	}
	return subcommands.ExitSuccess
}
