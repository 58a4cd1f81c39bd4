package insights

import (
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// MaxAdjustPercent bounds a sensitivity adjustment in either direction.
const MaxAdjustPercent = 50.0

// ErrNotAdjustable is returned for fields that are not cost components.
var ErrNotAdjustable = errors.New("field is not an adjustable cost component")

var adjustable = []pricing.Field{
	pricing.FieldFabricCostPerMeter,
	pricing.FieldJobberCostPerPiece,
	pricing.FieldWashingCostPerPiece,
	pricing.FieldPressPackingCostPerPiece,
	pricing.FieldAccessoriesCostPerPiece,
	pricing.FieldMonthlyFixed,
}

// AdjustableFields lists the cost components Sensitivity accepts.
func AdjustableFields() []pricing.Field {
	out := make([]pricing.Field, len(adjustable))
	copy(out, adjustable)
	return out
}

// SensitivityResult compares a baseline against one adjusted cost component.
type SensitivityResult struct {
	Field         string         `json:"field"`
	AdjustPercent float64        `json:"adjustPercent"`
	Base          pricing.Result `json:"base"`
	Adjusted      pricing.Result `json:"adjusted"`
	CostDelta     float64        `json:"costDelta"`
	PriceDelta    float64        `json:"priceDelta"`
	ProfitDelta   float64        `json:"totalProfitDelta"`
}

// Finite reports whether both results and every delta are finite numbers.
func (r SensitivityResult) Finite() bool {
	if !r.Base.Finite() || !r.Adjusted.Finite() {
		return false
	}
	for _, d := range []float64{r.CostDelta, r.PriceDelta, r.ProfitDelta} {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}

// Sensitivity recalculates with field scaled by (1 + pct/100). pct is clamped
// to ±MaxAdjustPercent.
func Sensitivity(in pricing.Inputs, field pricing.Field, pct float64) (SensitivityResult, error) {
	if !isAdjustable(field) {
		return SensitivityResult{}, fmt.Errorf("sensitivity on %q: %w", field.Key(), ErrNotAdjustable)
	}
	pct = clamp(pct, -MaxAdjustPercent, MaxAdjustPercent)

	base := pricing.Calculate(in)
	adjustedIn := in
	adjustedIn.Set(field, in.Value(field)*(1+pct/100))
	adjusted := pricing.Calculate(adjustedIn)

	return SensitivityResult{
		Field:         field.Key(),
		AdjustPercent: pct,
		Base:          base,
		Adjusted:      adjusted,
		CostDelta:     pricing.Round2(adjusted.CostPerPiece - base.CostPerPiece),
		PriceDelta:    pricing.Round2(adjusted.SuggestedPrice - base.SuggestedPrice),
		ProfitDelta:   pricing.Round2(adjusted.TotalProfit - base.TotalProfit),
	}, nil
}

func isAdjustable(f pricing.Field) bool {
	for _, a := range adjustable {
		if a == f {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
