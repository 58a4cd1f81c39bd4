package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func referenceInputs() Inputs {
	return Inputs{
		TotalFabricUsed:          Float(150),
		PiecesProduced:           Float(100),
		FabricCostPerM:           Float(200),
		JobberCostPerPiece:       Float(30),
		WashingCostPerPiece:      Float(10),
		PressPackingCostPerPiece: Float(5),
		AccessoriesCostPerPiece:  Float(8),
		MonthlyFixed:             Float(50000),
		MonthlyProduction:        Float(2000),
		Quantity:                 Float(500),
		ProfitPercent:            Float(25),
	}
}

func TestCalculate_ReferenceScenario(t *testing.T) {
	result := Calculate(referenceInputs())

	nearlyEqual(t, "costPerPiece", result.CostPerPiece, 378)
	nearlyEqual(t, "suggestedPrice", result.SuggestedPrice, 472.5)
	nearlyEqual(t, "profitPerPiece", result.ProfitPerPiece, 94.5)
	nearlyEqual(t, "totalCost", result.TotalCost, 189000)
	nearlyEqual(t, "totalProfit", result.TotalProfit, 47250)

	nearlyEqual(t, "breakdown.fabric", result.Breakdown.Fabric, 300)
	nearlyEqual(t, "breakdown.jobber", result.Breakdown.Jobber, 30)
	nearlyEqual(t, "breakdown.washing", result.Breakdown.Washing, 10)
	nearlyEqual(t, "breakdown.pressPacking", result.Breakdown.PressPacking, 5)
	nearlyEqual(t, "breakdown.accessories", result.Breakdown.Accessories, 8)
	nearlyEqual(t, "breakdown.overheads", result.Breakdown.Overheads, 25)
}

func TestCalculate_EmptyInputsYieldZero(t *testing.T) {
	result := Calculate(Inputs{})

	if result != (Result{}) {
		t.Fatalf("expected all-zero result, got %+v", result)
	}
}

func TestCalculate_DefaultProfitPercentIsTwentyFive(t *testing.T) {
	result := Calculate(Inputs{JobberCostPerPiece: Float(100)})

	nearlyEqual(t, "suggestedPrice", result.SuggestedPrice, 125)
	nearlyEqual(t, "profitPerPiece", result.ProfitPerPiece, 25)
	// quantity defaults to 1
	nearlyEqual(t, "totalCost", result.TotalCost, 100)
	nearlyEqual(t, "totalProfit", result.TotalProfit, 25)
}

func TestCalculate_DefaultPiecesProducedIsOne(t *testing.T) {
	result := Calculate(Inputs{TotalFabricUsed: Float(2), FabricCostPerM: Float(10)})

	nearlyEqual(t, "breakdown.fabric", result.Breakdown.Fabric, 20)
}

func TestCalculate_NegativeProfitPercent(t *testing.T) {
	result := Calculate(Inputs{JobberCostPerPiece: Float(100), ProfitPercent: Float(-10)})

	nearlyEqual(t, "costPerPiece", result.CostPerPiece, 100)
	nearlyEqual(t, "suggestedPrice", result.SuggestedPrice, 90)
	nearlyEqual(t, "profitPerPiece", result.ProfitPerPiece, -10)
}

func TestCalculate_ZeroPiecesProducedGuardsFabric(t *testing.T) {
	for _, fabric := range []float64{0, 1, 150, 1e6} {
		in := referenceInputs()
		in.TotalFabricUsed = Float(fabric)
		in.PiecesProduced = Float(0)

		result := Calculate(in)

		nearlyEqual(t, "breakdown.fabric", result.Breakdown.Fabric, 0)
		nearlyEqual(t, "costPerPiece", result.CostPerPiece, 78)
	}
}

func TestCalculate_ZeroMonthlyProductionGuardsOverheads(t *testing.T) {
	for _, fixed := range []float64{0, 50000, 1e9} {
		in := referenceInputs()
		in.MonthlyFixed = Float(fixed)
		in.MonthlyProduction = Float(0)

		result := Calculate(in)

		nearlyEqual(t, "breakdown.overheads", result.Breakdown.Overheads, 0)
		nearlyEqual(t, "costPerPiece", result.CostPerPiece, 353)
	}
}

func TestCalculate_NegativeInputsPassThrough(t *testing.T) {
	result := Calculate(Inputs{JobberCostPerPiece: Float(-40), WashingCostPerPiece: Float(10)})

	nearlyEqual(t, "breakdown.jobber", result.Breakdown.Jobber, -40)
	nearlyEqual(t, "costPerPiece", result.CostPerPiece, -30)
	nearlyEqual(t, "suggestedPrice", result.SuggestedPrice, -37.5)
}

func TestCalculate_LinearInQuantity(t *testing.T) {
	// unrounded cost per piece is 13.456, profit per piece 3.364
	base := Inputs{JobberCostPerPiece: Float(12.345), WashingCostPerPiece: Float(1.111)}

	for _, qty := range []float64{1, 7, 13, 250, 1001} {
		in := base
		in.Quantity = Float(qty)
		result := Calculate(in)

		if d := math.Abs(result.TotalCost - 13.456*qty); d > 0.005+1e-9 {
			t.Fatalf("qty=%v totalCost=%v deviates by %v", qty, result.TotalCost, d)
		}
		if d := math.Abs(result.TotalProfit - 3.364*qty); d > 0.005+1e-9 {
			t.Fatalf("qty=%v totalProfit=%v deviates by %v", qty, result.TotalProfit, d)
		}
	}
}

func TestCalculate_BreakdownSumsToCostPerPiece(t *testing.T) {
	cases := []Inputs{
		referenceInputs(),
		{TotalFabricUsed: Float(10), PiecesProduced: Float(3), FabricCostPerM: Float(99.99)},
		{
			TotalFabricUsed:          Float(7.77),
			PiecesProduced:           Float(9),
			FabricCostPerM:           Float(123.456),
			JobberCostPerPiece:       Float(0.005),
			WashingCostPerPiece:      Float(0.015),
			PressPackingCostPerPiece: Float(2.225),
			AccessoriesCostPerPiece:  Float(1.335),
			MonthlyFixed:             Float(1000),
			MonthlyProduction:        Float(7),
		},
	}

	for i, in := range cases {
		result := Calculate(in)
		if d := math.Abs(result.Breakdown.Total() - result.CostPerPiece); d > 0.06 {
			t.Fatalf("case %d: breakdown sum %v vs costPerPiece %v", i, result.Breakdown.Total(), result.CostPerPiece)
		}
	}
}

func TestCalculate_IsPure(t *testing.T) {
	in := referenceInputs()

	first := Calculate(in)
	second := Calculate(in)

	if first != second {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
	if *in.Quantity != 500 || *in.ProfitPercent != 25 {
		t.Fatalf("inputs were mutated: %+v", in)
	}
}

func TestCalculate_NonFiniteInputsDoNotPanic(t *testing.T) {
	result := Calculate(Inputs{JobberCostPerPiece: Float(math.Inf(1))})

	if !math.IsInf(result.CostPerPiece, 1) {
		t.Fatalf("expected +Inf cost, got %v", result.CostPerPiece)
	}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.125, 0.13},
		{-0.125, -0.13},
		{2.5, 2.5},
		{1.004, 1},
		{-1.005, -1.01},
		{472.5, 472.5},
	}

	for _, tc := range cases {
		nearlyEqual(t, "Round2", Round2(tc.in), tc.want)
	}
}

func TestResult_FiniteFlagsOverflow(t *testing.T) {
	if !Calculate(referenceInputs()).Finite() {
		t.Fatalf("reference result should be finite")
	}

	result := Calculate(Inputs{JobberCostPerPiece: Float(1e308), Quantity: Float(10)})
	if result.CostPerPiece != 1e308 {
		t.Fatalf("costPerPiece = %v, want 1e308", result.CostPerPiece)
	}
	if !math.IsInf(result.TotalCost, 1) || result.Finite() {
		t.Fatalf("expected overflowing total to be reported, got %+v", result)
	}
}
