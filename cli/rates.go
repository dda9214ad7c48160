package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latepay/arrears/rates"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Inspect and manage the rate schedule",
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the active rate schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, table, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("%-4s %-12s %-12s %8s\n", "#", "Start", "End", "Rate %")
		fmt.Println("---------------------------------------")
		for i, ri := range table.Intervals() {
			fmt.Printf("%-4d %-12s %-12s %8s\n", i, ri.Start, ri.End, ri.Rate.String())
		}
		return nil
	},
}

var ratesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in statutory schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, table, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := table.Replace(rates.DefaultSchedule()); err != nil {
			return fmt.Errorf("failed to reset schedule: %w", err)
		}
		if err := store.SaveRateIntervals(context.Background(), table.Intervals()); err != nil {
			return fmt.Errorf("failed to persist schedule: %w", err)
		}
		fmt.Printf("Restored statutory schedule (%d intervals)\n", table.Len())
		return nil
	},
}

var ratesExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the active schedule to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, table, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := rates.WriteFile(args[0], table); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}
		fmt.Printf("Wrote %d intervals to %s\n", table.Len(), args[0])
		return nil
	},
}

var ratesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the schedule from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, table, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		imported, err := rates.LoadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		if err := table.Replace(imported.Intervals()); err != nil {
			return fmt.Errorf("schedule rejected: %w", err)
		}
		if err := store.SaveRateIntervals(context.Background(), table.Intervals()); err != nil {
			return fmt.Errorf("failed to persist schedule: %w", err)
		}
		fmt.Printf("Imported %d intervals from %s\n", table.Len(), args[0])
		return nil
	},
}

func init() {
	ratesCmd.AddCommand(ratesListCmd)
	ratesCmd.AddCommand(ratesResetCmd)
	ratesCmd.AddCommand(ratesExportCmd)
	ratesCmd.AddCommand(ratesImportCmd)
}
