package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"folio"

	"github.com/google/subcommands"
)

type cashCmd struct {
	add float64
	sub float64
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "show or adjust the cash balance" }
func (*cashCmd) Usage() string {
	return `pfo cash [-add <amount> | -sub <amount>]

  Without flags, prints the current cash balance. -add deposits external
  cash, -sub withdraws it; withdrawing more than the balance fails.

Usage Examples:
$ pfo cash
$ pfo cash -add 5000
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.add, "add", 0, "Amount of cash to deposit.")
	f.Float64Var(&c.sub, "sub", 0, "Amount of cash to withdraw.")
}

func (c *cashCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.add != 0 && c.sub != 0 {
		fmt.Fprintln(os.Stderr, "Error: -add and -sub are mutually exclusive.")
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	positions := folio.NewPositions(store)

	var balance folio.Money
	switch {
	case c.add != 0:
		balance, err = positions.Deposit(c.add)
	case c.sub != 0:
		balance, err = positions.Withdraw(c.sub)
	default:
		balance, err = positions.CashBalance()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Cash balance %s\n", balance)
	return subcommands.ExitSuccess
}
