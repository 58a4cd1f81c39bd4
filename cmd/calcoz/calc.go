package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/insights"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
)

func newCalcCmd(a *app) *cobra.Command {
	var (
		currencyCode string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate cost per piece, suggested price and batch totals",
		Long: `Calculate cost per piece, suggested price and batch totals.

Inputs that are not given take their defaults: pieces produced, monthly
production and quantity default to 1, profit margin to 25%, everything else to 0.`,
		Args: cobra.NoArgs,
	}
	inputs := addInputFlags(cmd.Flags())
	cmd.Flags().StringVarP(&currencyCode, "currency", "c", "", "display currency (default $DEFAULT_CURRENCY)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		in, err := inputs.resolve(cmd.Context(), a, cmd.Flags())
		if err != nil {
			return err
		}
		cur, err := a.currency(currencyCode)
		if err != nil {
			return err
		}

		result := pricing.Calculate(in)
		report := export.NewReport("", plan.None, cur, in, result, a.now())
		if asJSON {
			if !result.Finite() {
				return errOverflow
			}
			return writeReportJSON(cmd.OutOrStdout(), report)
		}
		return printReport(cmd.OutOrStdout(), report)
	}
	return cmd
}

// errOverflow is returned when a result cannot be represented as JSON or stored.
var errOverflow = errors.New("inputs are too large: the result overflows")

type reportJSON struct {
	DesignNumber string                `json:"designNumber,omitempty"`
	Currency     string                `json:"currency"`
	Inputs       pricing.Values        `json:"inputs"`
	Result       pricing.Result        `json:"result"`
	Warnings     []insights.Warning    `json:"warnings"`
	Yield        *insights.Yield       `json:"yield,omitempty"`
	Batch        []insights.BatchPoint `json:"batch"`
}

func writeReportJSON(w io.Writer, r export.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reportJSON{
		DesignNumber: r.DesignNumber,
		Currency:     r.Currency.Code,
		Inputs:       r.Inputs,
		Result:       r.Result,
		Warnings:     r.Warnings,
		Yield:        r.Yield,
		Batch:        r.Batch,
	})
}

func printReport(w io.Writer, r export.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	cur := r.Currency

	if r.DesignNumber != "" {
		fmt.Fprintf(tw, "Design\t%s\t\n", r.DesignNumber)
	}
	for _, line := range r.SummaryLines() {
		fmt.Fprintf(tw, "%s\t%s\t\n", line.Label, cur.Format(line.Amount))
	}
	fmt.Fprintln(tw, "\t\t")

	fmt.Fprintln(tw, "Breakdown per piece\t\t\t")
	for _, line := range r.BreakdownLines() {
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t\n", line.Label, cur.Format(line.Amount), line.Share)
	}
	fmt.Fprintln(tw, "\t\t")

	fmt.Fprintln(tw, "Batch\tquantity\ttotal cost\tprofit\t")
	for _, p := range r.Batch {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t\n", p.Label, p.Quantity, cur.Format(p.TotalCost), cur.Format(p.TotalProfit))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Yield != nil {
		fmt.Fprintf(w, "\nFabric yield: %.2f m per piece, %.1f%% efficient (%s)\n", r.Yield.FabricPerPiece, r.Yield.Efficiency, r.Yield.Band)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s. %s\n", warn.Title, warn.Message)
	}
	return nil
}
