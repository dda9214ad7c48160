package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latepay/arrears/config"
	"github.com/latepay/arrears/rates"
	"github.com/latepay/arrears/store/sqlite"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "arrears",
	Short: "Statutory late-payment interest for overdue invoices",
	Long: `Arrears tracks overdue invoices with partial payments and computes
day-exact statutory late-payment interest over a piecewise rate schedule.

Use 'arrears serve' to run the HTTP API, or the subcommands for
one-off computations and CSV import/export.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/arrears/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(stateCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	return config.LoadDefault()
}

// openApp wires the store and the rate table from config. Persisted
// schedule edits win over the configured rates file, which wins over
// the built-in statutory schedule.
func openApp() (*config.Config, *sqlite.Store, *rates.Table, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	table, err := loadTable(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return cfg, store, table, nil
}

func loadTable(cfg *config.Config, store *sqlite.Store) (*rates.Table, error) {
	intervals, err := store.LoadRateIntervals(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load stored rate schedule: %w", err)
	}
	if intervals != nil {
		table, err := rates.New(intervals)
		if err != nil {
			return nil, fmt.Errorf("stored rate schedule is invalid: %w", err)
		}
		return table, nil
	}

	if cfg.Rates.File != "" {
		table, err := rates.LoadFile(cfg.Rates.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load rate schedule from %s: %w", cfg.Rates.File, err)
		}
		return table, nil
	}

	return rates.NewDefaultTable(), nil
}
