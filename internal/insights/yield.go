package insights

import "math"

// IdealFabricPerPiece is the reference consumption in meters per piece.
const IdealFabricPerPiece = 1.5

// Band classifies an efficiency percentage.
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// Yield describes how close actual fabric consumption is to the ideal.
type Yield struct {
	FabricPerPiece float64 `json:"fabricPerPiece"`
	Efficiency     float64 `json:"efficiency"`
	Band           Band    `json:"band"`
}

// YieldEfficiency computes fabric efficiency. ok is false when there is
// nothing to measure: no pieces produced or no fabric consumed.
func YieldEfficiency(totalFabricUsed, piecesProduced float64) (y Yield, ok bool) {
	if piecesProduced == 0 {
		return Yield{}, false
	}
	perPiece := totalFabricUsed / piecesProduced
	if perPiece == 0 || math.IsNaN(perPiece) || math.IsInf(perPiece, 0) {
		return Yield{}, false
	}

	efficiency := math.Max(0, IdealFabricPerPiece/perPiece*100)
	y = Yield{FabricPerPiece: perPiece, Efficiency: efficiency, Band: BandPoor}
	switch {
	case efficiency >= 90:
		y.Band = BandGood
	case efficiency >= 75:
		y.Band = BandFair
	}
	return y, true
}
