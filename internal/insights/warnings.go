// Package insights derives presentation-level hints from a costing result:
// margin and fabric warnings, fabric yield efficiency, batch what-ifs and
// single-input sensitivity.
package insights

import "github.com/Simplici0/calcoz/internal/pricing"

const (
	// LowMarginPercent is the margin below which a low-margin warning is raised.
	LowMarginPercent = 15.0
	// HighFabricShare is the fabric share of total cost above which a warning is raised.
	HighFabricShare = 0.6
)

// WarningCode identifies a warning kind.
type WarningCode string

const (
	WarningLowMargin  WarningCode = "low_margin"
	WarningHighFabric WarningCode = "high_fabric"
)

// Warning is a single actionable hint.
type Warning struct {
	Code    WarningCode `json:"code"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Warnings inspects a result and the margin that produced it.
//
// The fabric check compares the per-piece fabric amount with the batch
// total cost, so it only fires for single-piece batches in practice.
func Warnings(result pricing.Result, profitPercent float64) []Warning {
	out := make([]Warning, 0, 2)
	if profitPercent < LowMarginPercent {
		out = append(out, Warning{
			Code:    WarningLowMargin,
			Title:   "Low Profit Margin",
			Message: "Consider increasing your selling price or reducing costs.",
		})
	}
	if result.Breakdown.Fabric > result.TotalCost*HighFabricShare {
		out = append(out, Warning{
			Code:    WarningHighFabric,
			Title:   "High Fabric Cost",
			Message: "Fabric constitutes over 60% of your total cost.",
		})
	}
	return out
}
