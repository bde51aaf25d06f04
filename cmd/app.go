// Package cmd implements the CLI application managing the portfolio store.
package cmd

import (
	"flag"

	"folio"

	"github.com/google/subcommands"
)

// As a CLI application it is short lived, so package-level flags are fine.

var storeDir = flag.String("store-dir", ".folio", "Path to the portfolio store directory")
var currency = flag.String("currency", folio.DefaultCurrency, "Reporting currency of the portfolio")

// Register registers all subcommands on the commander.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "store")

	c.Register(&cashCmd{}, "positions")
	c.Register(&buyCmd{}, "positions")
	c.Register(&sellCmd{}, "positions")
	c.Register(&updateCmd{}, "positions")
	c.Register(&holdingsCmd{}, "positions")
	c.Register(&txCmd{}, "positions")

	c.Register(&watchCmd{}, "watchlists")

	c.Register(&valueCmd{}, "valuation")
}

// openStore opens the configured store directory.
func openStore() (*folio.Store, error) {
	return folio.Open(*storeDir, folio.StoreOptions{Currency: *currency})
}
