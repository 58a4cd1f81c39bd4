package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfLineHeight = 7.0
	pdfLabelWidth = 110.0
	pdfValueWidth = 70.0
)

// WritePDF renders r as a single-page A4 document. Amounts use the plain
// currency code because the core PDF fonts have no glyphs for most symbols.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetTitle(r.Title, false)
	pdf.SetAuthor("calcoz", false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	meta := fmt.Sprintf("Design %s  |  Currency %s  |  Generated %s",
		orDash(r.DesignNumber), r.Currency.Code, r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if r.Plan != "" {
		meta += "  |  Plan " + string(r.Plan)
	}
	pdf.CellFormat(0, 6, meta, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Results")
	for _, line := range r.SummaryLines() {
		row(pdf, line.Label, r.Currency.FormatPlain(line.Amount))
	}
	pdf.Ln(4)

	section(pdf, "Cost breakdown (per piece)")
	for _, line := range r.BreakdownLines() {
		row(pdf, fmt.Sprintf("%s (%.2f%%)", line.Label, line.Share), r.Currency.FormatPlain(line.Amount))
	}
	pdf.Ln(4)

	section(pdf, "Inputs")
	for _, line := range r.InputLines() {
		row(pdf, line.Label, line.Text)
	}

	if r.Yield != nil {
		pdf.Ln(4)
		section(pdf, "Fabric yield")
		row(pdf, "Fabric per piece (m)", fmt.Sprintf("%.2f", r.Yield.FabricPerPiece))
		row(pdf, "Efficiency", fmt.Sprintf("%.1f%% (%s)", r.Yield.Efficiency, r.Yield.Band))
	}

	if len(r.Warnings) > 0 {
		pdf.Ln(4)
		section(pdf, "Warnings")
		pdf.SetFont("Helvetica", "", 10)
		for _, warn := range r.Warnings {
			pdf.MultiCell(pdfLabelWidth+pdfValueWidth, 6, warn.Title+": "+warn.Message, "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(pdfLabelWidth+pdfValueWidth, 8, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func row(pdf *fpdf.Fpdf, label, value string) {
	pdf.CellFormat(pdfLabelWidth, pdfLineHeight, label, "B", 0, "L", false, 0, "")
	pdf.CellFormat(pdfValueWidth, pdfLineHeight, value, "B", 1, "R", false, 0, "")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
