package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simplici0/calcoz/internal/export"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
	"github.com/Simplici0/calcoz/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		currencyCode string
		formatName   string
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a PDF or Excel cost report",
		Long: `Calculate, log the calculation under a new design number and write a
PDF or Excel report.`,
		Args: cobra.NoArgs,
	}
	inputs := addInputFlags(cmd.Flags())
	cmd.Flags().StringVarP(&currencyCode, "currency", "c", "", "report currency (default $DEFAULT_CURRENCY)")
	cmd.Flags().StringVarP(&formatName, "format", "f", string(export.FormatPDF), "report format (pdf, xlsx)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <design number>.<format>)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		cur, err := a.currency(currencyCode)
		if err != nil {
			return err
		}
		in, err := inputs.resolve(ctx, a, cmd.Flags())
		if err != nil {
			return err
		}

		result := pricing.Calculate(in)
		if !result.Finite() {
			return errOverflow
		}
		var calc store.Calculation
		err = a.withStore(ctx, func(s *store.Store) error {
			designNumber, err := s.NextDesignNumber(ctx)
			if err != nil {
				return err
			}
			calc, err = s.RecordCalculation(ctx, store.Calculation{
				DesignNumber: designNumber,
				Currency:     cur.Code,
				Inputs:       in,
				Result:       result,
			})
			return err
		})
		if err != nil {
			return err
		}

		report := export.NewReport(calc.DesignNumber, plan.None, cur, in, result, a.now())
		var buf bytes.Buffer
		if err := export.Write(&buf, format, report); err != nil {
			return err
		}

		if outPath == "" {
			outPath = report.FileName(format)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", outPath, calc.DesignNumber)
		return nil
	}
	return cmd
}
