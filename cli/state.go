package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latepay/arrears/csvio"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Import and export the invoice/payment state as CSV",
}

var stateExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write all invoices and payments to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		invoices, err := store.ListInvoices(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[0], err)
		}
		defer f.Close()

		if err := csvio.ExportState(f, invoices); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
		fmt.Printf("Exported %d invoices to %s\n", len(invoices), args[0])
		return nil
	},
}

var stateImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all invoices and payments from a CSV file",
	Long: `Replaces the whole invoice/payment state from a CSV export.
Malformed rows are reported and skipped; the rest of the file imports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		invoices, rowErrs, err := csvio.ImportState(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		if err := store.ReplaceAll(context.Background(), invoices); err != nil {
			return fmt.Errorf("failed to store imported state: %w", err)
		}

		fmt.Printf("Imported %d invoices from %s\n", len(invoices), args[0])
		for i := range rowErrs {
			fmt.Fprintf(os.Stderr, "skipped %v\n", &rowErrs[i])
		}
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateExportCmd)
	stateCmd.AddCommand(stateImportCmd)
}
