package insights

import (
	"fmt"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// BatchSteps are the quantity changes, in percent, shown by the simulator.
var BatchSteps = []float64{-50, -25, 0, 25, 50, 100}

// BatchPoint is one what-if quantity and the profit it would produce.
type BatchPoint struct {
	Label         string  `json:"label"`
	ChangePercent float64 `json:"changePercent"`
	Quantity      float64 `json:"quantity"`
	TotalCost     float64 `json:"totalCost"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalProfit   float64 `json:"totalProfit"`
}

// SimulateBatch projects batch totals for quantities around the planned one,
// using the rounded per-piece cost and price of result.
func SimulateBatch(result pricing.Result, quantity float64) []BatchPoint {
	points := make([]BatchPoint, 0, len(BatchSteps))
	for _, step := range BatchSteps {
		qty := quantity * (1 + step/100)
		cost := result.CostPerPiece * qty
		revenue := result.SuggestedPrice * qty
		points = append(points, BatchPoint{
			Label:         stepLabel(step),
			ChangePercent: step,
			Quantity:      qty,
			TotalCost:     pricing.Round2(cost),
			TotalRevenue:  pricing.Round2(revenue),
			TotalProfit:   pricing.Round2(revenue - cost),
		})
	}
	return points
}

func stepLabel(step float64) string {
	if step > 0 {
		return fmt.Sprintf("+%g%%", step)
	}
	return fmt.Sprintf("%g%%", step)
}
