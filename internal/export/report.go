// Package export renders a costing report as PDF or XLSX.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Simplici0/calcoz/internal/currency"
	"github.com/Simplici0/calcoz/internal/insights"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/pricing"
)

// Format is an export file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned by ParseFormat and Write for unsupported formats.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrUnknownFormat)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Feature returns the plan feature that unlocks f.
func (f Format) Feature() plan.Feature {
	if f == FormatXLSX {
		return plan.FeatureXLSXExport
	}
	return plan.FeaturePDFExport
}

// Report is everything an exported document shows.
type Report struct {
	Title        string
	DesignNumber string
	Plan         plan.Plan
	Currency     currency.Currency
	Inputs       pricing.Values
	Result       pricing.Result
	Warnings     []insights.Warning
	Yield        *insights.Yield
	Batch        []insights.BatchPoint
	GeneratedAt  time.Time
}

// NewReport assembles a report for a computed result. result is taken as
// given so logged snapshots export exactly what was shown.
func NewReport(designNumber string, p plan.Plan, cur currency.Currency, in pricing.Inputs, result pricing.Result, now time.Time) Report {
	values := in.Resolved()
	r := Report{
		Title:        "Clothing Cost Report",
		DesignNumber: designNumber,
		Plan:         p,
		Currency:     cur,
		Inputs:       values,
		Result:       result,
		Warnings:     insights.Warnings(result, values.ProfitPercent),
		Batch:        insights.SimulateBatch(result, values.Quantity),
		GeneratedAt:  now.UTC(),
	}
	if y, ok := insights.YieldEfficiency(values.TotalFabricUsed, values.PiecesProduced); ok {
		r.Yield = &y
	}
	return r
}

// FileName suggests a download name for r in format f.
func (r Report) FileName(f Format) string {
	name := strings.TrimSpace(r.DesignNumber)
	if name == "" {
		name = "calcoz-report"
	}
	return name + "." + string(f)
}

// BreakdownLine is one cost category with its share of the per-piece cost.
type BreakdownLine struct {
	Label  string
	Amount float64
	Share  float64
}

// BreakdownLines lists the cost categories in display order.
func (r Report) BreakdownLines() []BreakdownLine {
	b := r.Result.Breakdown
	lines := []BreakdownLine{
		{Label: "Fabric", Amount: b.Fabric},
		{Label: "Jobber", Amount: b.Jobber},
		{Label: "Washing", Amount: b.Washing},
		{Label: "Press & Packing", Amount: b.PressPacking},
		{Label: "Accessories", Amount: b.Accessories},
		{Label: "Overheads", Amount: b.Overheads},
	}
	if r.Result.CostPerPiece != 0 {
		for i := range lines {
			lines[i].Share = pricing.Round2(lines[i].Amount / r.Result.CostPerPiece * 100)
		}
	}
	return lines
}

// SummaryLine is one headline figure.
type SummaryLine struct {
	Label  string
	Amount float64
}

// SummaryLines lists the headline results.
func (r Report) SummaryLines() []SummaryLine {
	return []SummaryLine{
		{Label: "Cost per piece", Amount: r.Result.CostPerPiece},
		{Label: "Suggested price", Amount: r.Result.SuggestedPrice},
		{Label: "Profit per piece", Amount: r.Result.ProfitPerPiece},
		{Label: "Total cost", Amount: r.Result.TotalCost},
		{Label: "Total profit", Amount: r.Result.TotalProfit},
	}
}

// InputLine is one input with its display text. Amount values are in the
// report currency.
type InputLine struct {
	Label string
	Value float64
	Text  string
}

// InputLines lists the resolved inputs, amounts formatted with the plain currency code.
func (r Report) InputLines() []InputLine {
	fields := pricing.Fields()
	lines := make([]InputLine, 0, len(fields))
	for _, f := range fields {
		v := r.Inputs.Get(f)
		text := fmt.Sprintf("%g", v)
		switch {
		case f.IsAmount():
			text = r.Currency.FormatPlain(v)
			v = r.Currency.Convert(v)
		case f.IsPercent():
			text = fmt.Sprintf("%g%%", v)
		}
		lines = append(lines, InputLine{Label: f.Label(), Value: v, Text: text})
	}
	return lines
}

// Write renders r in format f to w.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return fmt.Errorf("write %q: %w", f, ErrUnknownFormat)
	}
}
