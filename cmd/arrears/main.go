/*
main.go - Application entry point

PURPOSE:
  Runs the arrears CLI. All real work lives in the cli package; this
  file only dispatches to it.

COMMANDS:
  serve            Run the HTTP API server
  compute          One-off interest breakdown for a single invoice
  rates            Inspect, reset, import and export the rate schedule
  state            CSV import/export of the full invoice/payment state

CONFIGURATION:
  ~/.config/arrears/config.yaml by default, overridable with --config.
  See config/config.go for the schema.

EXAMPLES:
  # Run the API on the configured address
  arrears serve

  # Compute interest without touching the database
  arrears compute 2022-01-01 1000 2022-01-16:400 --as-of 2022-01-31

  # Back up all invoices and payments
  arrears state export invoices_payments.csv

SEE ALSO:
  - cli/root.go: Command wiring
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/latepay/arrears/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
