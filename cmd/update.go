package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"folio"

	"github.com/google/subcommands"
)

type updateCmd struct {
	note string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "update the note of a holding" }
func (*updateCmd) Usage() string {
	return `pfo update -note <note> <holding-id>

  Updates a holding's note. This is a metadata-only change: it does not
  affect value and writes no ledger entry.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.note, "note", "", "New note for the holding.")
}

func (c *updateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one holding id is required.")
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	holding, err := folio.NewPositions(store).UpdatePosition(f.Arg(0), c.note)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated %s (%s)\n", holding.ID, holding.Ticker)
	return subcommands.ExitSuccess
}
