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

type watchCmd struct {
	note string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "manage watchlists" }
func (*watchCmd) Usage() string {
	return `pfo watch new <name> [ticker...]
pfo watch add <id> <ticker>
pfo watch rm <id> <ticker>
pfo watch ls [id]

  Manages watchlists. A watchlist id is the slug of its name ("Tech
  Ideas" -> "tech-ideas"). Adding a ticker that is already present is a
  no-op; so is removing an absent one.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.note, "note", "", "Optional note for a new watchlist.")
}

func (c *watchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	watchlists := folio.NewWatchlists(store)

	switch verb := f.Arg(0); verb {
	case "new":
		if f.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Error: a watchlist name is required.")
			return subcommands.ExitUsageError
		}
		wl, err := watchlists.Create(f.Arg(1), f.Args()[2:], c.note)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Created watchlist %q (%s)\n", wl.Name, wl.ID)
	case "add":
		if f.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "Error: watch add <id> <ticker>")
			return subcommands.ExitUsageError
		}
		wl, err := watchlists.AddTicker(f.Arg(1), f.Arg(2))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s: %s\n", wl.ID, strings.Join(wl.Tickers, " "))
	case "rm":
		if f.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "Error: watch rm <id> <ticker>")
			return subcommands.ExitUsageError
		}
		wl, err := watchlists.RemoveTicker(f.Arg(1), f.Arg(2))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s: %s\n", wl.ID, strings.Join(wl.Tickers, " "))
	case "ls":
		if f.NArg() == 2 {
			wl, err := watchlists.Get(f.Arg(1))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
			printWatchlists([]folio.Watchlist{wl})
			return subcommands.ExitSuccess
		}
		all, err := watchlists.All()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printWatchlists(all)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown verb %q.\n", verb)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

func printWatchlists(lists []folio.Watchlist) {
	var md strings.Builder
	md.WriteString("# Watchlists\n\n")
	if len(lists) == 0 {
		md.WriteString("No watchlists.\n")
	} else {
		md.WriteString("| Id | Name | Tickers | Created |\n")
		md.WriteString("|---|---|---|---|\n")
		for _, wl := range lists {
			fmt.Fprintf(&md, "| %s | %s | %s | %s |\n",
				wl.ID, wl.Name, strings.Join(wl.Tickers, " "), wl.CreatedAt.Format(folio.DateFormat))
		}
	}
	printMarkdown(md.String())
}
