package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/latepay/arrears/csvio"
	"github.com/latepay/arrears/interest"
)

var (
	computeAsOf string
	computeCSV  string
)

var computeCmd = &cobra.Command{
	Use:   "compute <due_date> <amount> [payment...]",
	Short: "Compute the interest breakdown for one invoice",
	Long: `Computes day-exact late-payment interest for a single invoice without
touching the database. Payments are given as DATE:AMOUNT pairs, e.g.

  arrears compute 2022-01-01 1000 2022-01-16:400 --as-of 2022-01-31`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dueDate, err := interest.ParseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(args[1], ",", "."))
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}

		payments, err := parsePayments(args[2:])
		if err != nil {
			return err
		}

		asOf := interest.Today()
		if computeAsOf != "" {
			asOf, err = interest.ParseDate(computeAsOf)
			if err != nil {
				return fmt.Errorf("invalid as-of date: %w", err)
			}
		}

		_, store, table, err := openApp()
		if err != nil {
			return err
		}
		defer store.Close()

		schedule, err := table.EffectiveIntervals()
		if err != nil {
			return fmt.Errorf("rate schedule is invalid: %w", err)
		}

		items := interest.Compute(amount, dueDate, payments, asOf, schedule)

		if computeCSV != "" {
			f, err := os.Create(computeCSV)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", computeCSV, err)
			}
			defer f.Close()
			if err := csvio.ExportBreakdown(f, items); err != nil {
				return fmt.Errorf("failed to write breakdown: %w", err)
			}
		}

		printBreakdown(items, asOf)
		return nil
	},
}

func parsePayments(args []string) ([]interest.Payment, error) {
	var payments []interest.Payment
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid payment %q (want DATE:AMOUNT)", arg)
		}
		date, err := interest.ParseDate(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid payment date in %q: %w", arg, err)
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(parts[1], ",", "."))
		if err != nil {
			return nil, fmt.Errorf("invalid payment amount in %q: %w", arg, err)
		}
		payments = append(payments, interest.NewPayment(date, amount))
	}
	return payments, nil
}

func printBreakdown(items []interest.LineItem, asOf interest.Date) {
	if len(items) == 0 {
		fmt.Printf("No interest accrued as of %s\n", asOf)
		return
	}

	fmt.Printf("%-12s %-12s %8s %6s %12s %10s\n", "From", "To", "Rate %", "Days", "Principal", "Interest")
	fmt.Println("----------------------------------------------------------------")
	for _, it := range items {
		fmt.Printf("%-12s %-12s %8s %6d %12s %10s\n",
			it.PeriodFrom,
			it.PeriodTo,
			it.Rate.String(),
			it.Days,
			it.Principal.StringFixed(2),
			it.Interest.StringFixed(2),
		)
	}
	fmt.Println("----------------------------------------------------------------")
	fmt.Printf("Total as of %s: %s\n", asOf, interest.SumInterest(items).StringFixed(2))
}

func init() {
	computeCmd.Flags().StringVar(&computeAsOf, "as-of", "", "accrual cutoff date (default today)")
	computeCmd.Flags().StringVar(&computeCSV, "csv", "", "also write the breakdown to a CSV file")
}
