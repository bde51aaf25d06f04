package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"folio"

	"github.com/google/subcommands"
)

type initCmd struct {
	cash float64
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create the portfolio store with an opening cash balance" }
func (*initCmd) Usage() string {
	return `pfo init [-cash <amount>]

  Creates the store directory and seeds the portfolio with the given
  opening cash balance. Running init on an existing store is harmless and
  leaves it unchanged.

Usage Examples:
$ pfo init -cash 10000
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.cash, "cash", 0, "Opening cash balance.")
}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.cash < 0 {
		fmt.Fprintln(os.Stderr, "Error: opening cash must not be negative.")
		return subcommands.ExitUsageError
	}
	store, err := folio.Open(*storeDir, folio.StoreOptions{Currency: *currency, OpeningCash: c.cash})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	snap, err := store.Init()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Store %q ready, cash balance %s\n", store.Dir(), snap.Cash)
	return subcommands.ExitSuccess
}
