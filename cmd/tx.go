package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"folio"

	"github.com/google/subcommands"
)

type txCmd struct {
	ticker string
	kind   string
	start  string
	end    string
	limit  int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions from the ledger, newest first" }
func (*txCmd) Usage() string {
	return `pfo tx [-t <ticker>] [-kind BUY|SELL] [-s <start>] [-e <end>] [-n <limit>]

  Lists ledger transactions newest first, optionally filtered by ticker,
  kind and date range.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Filter by ticker.")
	f.StringVar(&c.kind, "kind", "", "Filter by kind (BUY or SELL).")
	f.StringVar(&c.start, "s", "", "Start date of the range (YYYY-MM-DD).")
	f.StringVar(&c.end, "e", "", "End date of the range (YYYY-MM-DD).")
	f.IntVar(&c.limit, "n", 0, "Maximum number of transactions to show.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var filters []folio.TxFilter
	if c.ticker != "" {
		ticker, err := folio.NormalizeTicker(c.ticker)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		filters = append(filters, folio.ByTicker(ticker))
	}
	if c.kind != "" {
		kind, err := folio.ParseTxKind(strings.ToUpper(c.kind))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		filters = append(filters, folio.ByKind(kind))
	}
	if c.start != "" || c.end != "" {
		var from, to time.Time
		var err error
		if c.start != "" {
			if from, err = folio.ParseWhen(c.start); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitUsageError
			}
		}
		if c.end != "" {
			if to, err = folio.ParseWhen(c.end); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitUsageError
			}
		}
		filters = append(filters, folio.Between(from, to))
	}

	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	txs, err := folio.NewPositions(store).History(c.limit, filters...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var md strings.Builder
	md.WriteString("# Transactions\n\n")
	if len(txs) == 0 {
		md.WriteString("No transactions.\n")
	} else {
		md.WriteString("| Id | Kind | Ticker | Quantity | Price | Total | Date |\n")
		md.WriteString("|---:|---|---|---:|---:|---:|---|\n")
		for _, tx := range txs {
			fmt.Fprintf(&md, "| %d | %s | %s | %d | %s | %s | %s |\n",
				tx.ID, tx.Kind, tx.Ticker, tx.Quantity, tx.Price, tx.SignedTotal().SignedString(), tx.Timestamp.Format(folio.DateFormat))
		}
	}
	printMarkdown(md.String())
	return subcommands.ExitSuccess
}
