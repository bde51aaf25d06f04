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

type valueCmd struct {
	apiKey   string
	parallel int
	timeout  time.Duration
	budget   time.Duration
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value the portfolio against current market prices" }
func (*valueCmd) Usage() string {
	return `pfo value [-api-key <key>] [-parallel <n>] [-timeout <d>] [-budget <d>]

  Fetches a current quote for every held ticker and reports market value,
  unrealized gain/loss and return. Tickers whose quote cannot be fetched
  are listed as unavailable; they never fail the whole report.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.apiKey, "api-key", "", "EODHD API key. Defaults to the "+folio.EODHDAPIKeyEnv+" environment variable.")
	f.IntVar(&c.parallel, "parallel", folio.DefaultMaxParallel, "Maximum concurrent quote lookups.")
	f.DurationVar(&c.timeout, "timeout", folio.DefaultLookupTimeout, "Timeout per quote lookup.")
	f.DurationVar(&c.budget, "budget", folio.DefaultBudget, "Total time budget for the valuation.")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	valuator := folio.NewValuator(store, folio.NewEODHD(c.apiKey, store.Currency()))
	valuator.MaxParallel = c.parallel
	valuator.LookupTimeout = c.timeout
	valuator.Budget = c.budget

	report, err := valuator.ValuePortfolio(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var md strings.Builder
	md.WriteString("# Valuation\n\n")
	if len(report.Positions) == 0 {
		md.WriteString("No holdings.\n")
	} else {
		md.WriteString("| Ticker | Quantity | Invested | Price | Market Value | Gain | Return |\n")
		md.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, pv := range report.Positions {
			if pv.PriceUnavailable {
				fmt.Fprintf(&md, "| %s | %d | %s | n/a | n/a | n/a | n/a |\n", pv.Ticker, pv.Quantity, pv.Invested)
				continue
			}
			fmt.Fprintf(&md, "| %s | %d | %s | %s | %s | %s | %.2f%% |\n",
				pv.Ticker, pv.Quantity, pv.Invested, pv.Price, pv.MarketValue, pv.UnrealizedGain.SignedString(), pv.ReturnPercent)
		}
		fmt.Fprintf(&md, "\nMarket value **%s**, cash **%s**, total **%s**, unrealized gain **%s** (%.2f%%).\n",
			report.TotalMarketValue, report.Cash, report.TotalValue, report.TotalUnrealizedGain.SignedString(), report.ReturnPercent)
	}
	if len(report.FailedTickers) > 0 {
		fmt.Fprintf(&md, "\nNo quote for: %s.\n", strings.Join(report.FailedTickers, ", "))
	}
	printMarkdown(md.String())
	return subcommands.ExitSuccess
}
