package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Inputs represents the user-supplied costing inputs for one garment design.
// A nil field was not supplied and resolves to its default (see Field.Default).
type Inputs struct {
	TotalFabricUsed *float64 `json:"totalFabricUsed,omitempty"`
	PiecesProduced  *float64 `json:"piecesProduced,omitempty"`
	FabricCostPerM  *float64 `json:"fabricCostPerMeter,omitempty"`

	JobberCostPerPiece       *float64 `json:"jobberCostPerPiece,omitempty"`
	WashingCostPerPiece      *float64 `json:"washingCostPerPiece,omitempty"`
	PressPackingCostPerPiece *float64 `json:"pressPackingCostPerPiece,omitempty"`
	AccessoriesCostPerPiece  *float64 `json:"accessoriesCostPerPiece,omitempty"`

	MonthlyFixed      *float64 `json:"monthlyFixed,omitempty"`
	MonthlyProduction *float64 `json:"monthlyProduction,omitempty"`
	Quantity          *float64 `json:"quantity,omitempty"`
	ProfitPercent     *float64 `json:"profitPercent,omitempty"`
}

// Values is Inputs with every default applied.
type Values struct {
	TotalFabricUsed          float64 `json:"totalFabricUsed"`
	PiecesProduced           float64 `json:"piecesProduced"`
	FabricCostPerM           float64 `json:"fabricCostPerMeter"`
	JobberCostPerPiece       float64 `json:"jobberCostPerPiece"`
	WashingCostPerPiece      float64 `json:"washingCostPerPiece"`
	PressPackingCostPerPiece float64 `json:"pressPackingCostPerPiece"`
	AccessoriesCostPerPiece  float64 `json:"accessoriesCostPerPiece"`
	MonthlyFixed             float64 `json:"monthlyFixed"`
	MonthlyProduction        float64 `json:"monthlyProduction"`
	Quantity                 float64 `json:"quantity"`
	ProfitPercent            float64 `json:"profitPercent"`
}

// Breakdown contains the per-piece contribution of each cost category.
type Breakdown struct {
	Fabric       float64 `json:"fabric"`
	Jobber       float64 `json:"jobber"`
	Washing      float64 `json:"washing"`
	PressPacking float64 `json:"pressPacking"`
	Accessories  float64 `json:"accessories"`
	Overheads    float64 `json:"overheads"`
}

// Total sums the six categories. Because each category is rounded on its own
// the sum can drift from Result.CostPerPiece by a few cents.
func (b Breakdown) Total() float64 {
	return b.Fabric + b.Jobber + b.Washing + b.PressPacking + b.Accessories + b.Overheads
}

// Result groups the full costing output. Every field is rounded to 2 decimal places.
type Result struct {
	CostPerPiece   float64   `json:"costPerPiece"`
	SuggestedPrice float64   `json:"suggestedPrice"`
	ProfitPerPiece float64   `json:"profitPerPiece"`
	TotalCost      float64   `json:"totalCost"`
	TotalProfit    float64   `json:"totalProfit"`
	Breakdown      Breakdown `json:"breakdown"`
}

// Finite reports whether every figure in r is a finite number. Large but
// finite inputs can still overflow to an infinity.
func (r Result) Finite() bool {
	for _, v := range []float64{
		r.CostPerPiece, r.SuggestedPrice, r.ProfitPerPiece, r.TotalCost, r.TotalProfit,
		r.Breakdown.Fabric, r.Breakdown.Jobber, r.Breakdown.Washing,
		r.Breakdown.PressPacking, r.Breakdown.Accessories, r.Breakdown.Overheads,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Calculate computes per-piece and batch costs from the given inputs.
// It never fails: missing inputs take their defaults, zero divisors yield a
// zero share and negative values pass through unchanged.
func Calculate(in Inputs) Result {
	return in.Resolved().Calculate()
}

// Calculate computes costs from fully resolved values.
func (v Values) Calculate() Result {
	fabricPerPiece := 0.0
	if v.PiecesProduced > 0 {
		fabricPerPiece = v.TotalFabricUsed / v.PiecesProduced
	}
	fabricCost := fabricPerPiece * v.FabricCostPerM

	variableCost := fabricCost +
		v.JobberCostPerPiece +
		v.WashingCostPerPiece +
		v.PressPackingCostPerPiece +
		v.AccessoriesCostPerPiece

	overhead := 0.0
	if v.MonthlyProduction > 0 {
		overhead = v.MonthlyFixed / v.MonthlyProduction
	}

	costPerPiece := variableCost + overhead
	suggestedPrice := costPerPiece * (1 + v.ProfitPercent/100)
	profitPerPiece := suggestedPrice - costPerPiece

	return Result{
		CostPerPiece:   Round2(costPerPiece),
		SuggestedPrice: Round2(suggestedPrice),
		ProfitPerPiece: Round2(profitPerPiece),
		TotalCost:      Round2(costPerPiece * v.Quantity),
		TotalProfit:    Round2(profitPerPiece * v.Quantity),
		Breakdown: Breakdown{
			Fabric:       Round2(fabricCost),
			Jobber:       Round2(v.JobberCostPerPiece),
			Washing:      Round2(v.WashingCostPerPiece),
			PressPacking: Round2(v.PressPackingCostPerPiece),
			Accessories:  Round2(v.AccessoriesCostPerPiece),
			Overheads:    Round2(overhead),
		},
	}
}

// Round2 rounds to 2 decimal places, halves away from zero.
// NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
