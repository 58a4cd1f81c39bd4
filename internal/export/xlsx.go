package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetInputs    = "Inputs"
	sheetBreakdown = "Breakdown"
	sheetBatch     = "Batch"
)

// WriteXLSX renders r as a workbook with Summary, Inputs, Breakdown and
// Batch sheets. Cells hold numbers converted to the
// report currency so the sheet stays computable.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetInputs, sheetBreakdown, sheetBatch} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]any{
		{r.Title},
		{"Design number", r.DesignNumber},
		{"Currency", r.Currency.Code},
		{"Generated", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
	}
	for _, line := range r.SummaryLines() {
		summary = append(summary, []any{line.Label, r.Currency.Convert(line.Amount)})
	}
	for _, warn := range r.Warnings {
		summary = append(summary, []any{"Warning", warn.Title, warn.Message})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}

	inputs := [][]any{{"Input", "Value"}}
	for _, line := range r.InputLines() {
		inputs = append(inputs, []any{line.Label, line.Value})
	}
	if err := writeRows(f, sheetInputs, inputs); err != nil {
		return err
	}

	breakdown := [][]any{{"Category", "Amount", "Share %"}}
	for _, line := range r.BreakdownLines() {
		breakdown = append(breakdown, []any{line.Label, r.Currency.Convert(line.Amount), line.Share})
	}
	breakdown = append(breakdown, []any{"Cost per piece", r.Currency.Convert(r.Result.CostPerPiece)})
	if err := writeRows(f, sheetBreakdown, breakdown); err != nil {
		return err
	}

	cur := r.Currency.Convert
	batch := [][]any{{"Change", "Quantity", "Total cost", "Total revenue", "Total profit"}}
	for _, p := range r.Batch {
		batch = append(batch, []any{p.Label, p.Quantity, cur(p.TotalCost), cur(p.TotalRevenue), cur(p.TotalProfit)})
	}
	if err := writeRows(f, sheetBatch, batch); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
