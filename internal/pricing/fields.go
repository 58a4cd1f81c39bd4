package pricing

import "strings"

// Field names one costing input.
type Field int

const (
	FieldTotalFabricUsed Field = iota
	FieldPiecesProduced
	FieldFabricCostPerMeter
	FieldJobberCostPerPiece
	FieldWashingCostPerPiece
	FieldPressPackingCostPerPiece
	FieldAccessoriesCostPerPiece
	FieldMonthlyFixed
	FieldMonthlyProduction
	FieldQuantity
	FieldProfitPercent
)

type fieldKind int

const (
	kindMeasure fieldKind = iota
	kindAmount
	kindPercent
)

type fieldSpec struct {
	key   string
	label string
	def   float64
	kind  fieldKind
}

var fieldSpecs = [...]fieldSpec{
	FieldTotalFabricUsed:          {"totalFabricUsed", "Total fabric used (m)", 0, kindMeasure},
	FieldPiecesProduced:           {"piecesProduced", "Pieces produced", 1, kindMeasure},
	FieldFabricCostPerMeter:       {"fabricCostPerMeter", "Fabric cost per meter", 0, kindAmount},
	FieldJobberCostPerPiece:       {"jobberCostPerPiece", "Jobber cost per piece", 0, kindAmount},
	FieldWashingCostPerPiece:      {"washingCostPerPiece", "Washing cost per piece", 0, kindAmount},
	FieldPressPackingCostPerPiece: {"pressPackingCostPerPiece", "Press & packing cost per piece", 0, kindAmount},
	FieldAccessoriesCostPerPiece:  {"accessoriesCostPerPiece", "Accessories cost per piece", 0, kindAmount},
	FieldMonthlyFixed:             {"monthlyFixed", "Monthly fixed costs", 0, kindAmount},
	FieldMonthlyProduction:        {"monthlyProduction", "Monthly production (pieces)", 1, kindMeasure},
	FieldQuantity:                 {"quantity", "Batch quantity", 1, kindMeasure},
	FieldProfitPercent:            {"profitPercent", "Profit margin (%)", 25, kindPercent},
}

// Fields lists every input in form order.
func Fields() []Field {
	out := make([]Field, len(fieldSpecs))
	for i := range fieldSpecs {
		out[i] = Field(i)
	}
	return out
}

// ParseField resolves a field key such as "jobberCostPerPiece". Matching ignores case.
func ParseField(key string) (Field, bool) {
	key = strings.TrimSpace(key)
	for i, spec := range fieldSpecs {
		if strings.EqualFold(spec.key, key) {
			return Field(i), true
		}
	}
	return 0, false
}

func (f Field) valid() bool { return f >= 0 && int(f) < len(fieldSpecs) }

// Key returns the stable identifier used in forms, JSON and storage.
func (f Field) Key() string {
	if !f.valid() {
		return ""
	}
	return fieldSpecs[f].key
}

// Label returns a human readable name.
func (f Field) Label() string {
	if !f.valid() {
		return ""
	}
	return fieldSpecs[f].label
}

// Default returns the value used when the field is missing.
func (f Field) Default() float64 {
	if !f.valid() {
		return 0
	}
	return fieldSpecs[f].def
}

// IsAmount reports whether the field is a currency amount.
func (f Field) IsAmount() bool {
	return f.valid() && fieldSpecs[f].kind == kindAmount
}

// IsPercent reports whether the field is expressed in percentage points.
func (f Field) IsPercent() bool {
	return f.valid() && fieldSpecs[f].kind == kindPercent
}

func (f Field) String() string { return f.Key() }

// Float returns a pointer to v, for building Inputs literals.
func Float(v float64) *float64 { return &v }

func (in *Inputs) slot(f Field) **float64 {
	switch f {
	case FieldTotalFabricUsed:
		return &in.TotalFabricUsed
	case FieldPiecesProduced:
		return &in.PiecesProduced
	case FieldFabricCostPerMeter:
		return &in.FabricCostPerM
	case FieldJobberCostPerPiece:
		return &in.JobberCostPerPiece
	case FieldWashingCostPerPiece:
		return &in.WashingCostPerPiece
	case FieldPressPackingCostPerPiece:
		return &in.PressPackingCostPerPiece
	case FieldAccessoriesCostPerPiece:
		return &in.AccessoriesCostPerPiece
	case FieldMonthlyFixed:
		return &in.MonthlyFixed
	case FieldMonthlyProduction:
		return &in.MonthlyProduction
	case FieldQuantity:
		return &in.Quantity
	case FieldProfitPercent:
		return &in.ProfitPercent
	}
	return nil
}

// Set assigns v to field f. Unknown fields are ignored.
func (in *Inputs) Set(f Field, v float64) {
	if p := in.slot(f); p != nil {
		*p = &v
	}
}

// Clear marks field f as missing so its default applies again.
func (in *Inputs) Clear(f Field) {
	if p := in.slot(f); p != nil {
		*p = nil
	}
}

// Get returns the supplied value for f and whether it was supplied.
func (in Inputs) Get(f Field) (float64, bool) {
	p := in.slot(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Value returns the supplied value for f, or its default.
func (in Inputs) Value(f Field) float64 {
	if v, ok := in.Get(f); ok {
		return v
	}
	return f.Default()
}

// Resolved applies defaults to every missing field.
func (in Inputs) Resolved() Values {
	return Values{
		TotalFabricUsed:          in.Value(FieldTotalFabricUsed),
		PiecesProduced:           in.Value(FieldPiecesProduced),
		FabricCostPerM:           in.Value(FieldFabricCostPerMeter),
		JobberCostPerPiece:       in.Value(FieldJobberCostPerPiece),
		WashingCostPerPiece:      in.Value(FieldWashingCostPerPiece),
		PressPackingCostPerPiece: in.Value(FieldPressPackingCostPerPiece),
		AccessoriesCostPerPiece:  in.Value(FieldAccessoriesCostPerPiece),
		MonthlyFixed:             in.Value(FieldMonthlyFixed),
		MonthlyProduction:        in.Value(FieldMonthlyProduction),
		Quantity:                 in.Value(FieldQuantity),
		ProfitPercent:            in.Value(FieldProfitPercent),
	}
}

// Get returns the value of field f.
func (v Values) Get(f Field) float64 {
	in := v.Inputs()
	return in.Value(f)
}

// Inputs converts v back into Inputs with every field supplied.
func (v Values) Inputs() Inputs {
	return Inputs{
		TotalFabricUsed:          Float(v.TotalFabricUsed),
		PiecesProduced:           Float(v.PiecesProduced),
		FabricCostPerM:           Float(v.FabricCostPerM),
		JobberCostPerPiece:       Float(v.JobberCostPerPiece),
		WashingCostPerPiece:      Float(v.WashingCostPerPiece),
		PressPackingCostPerPiece: Float(v.PressPackingCostPerPiece),
		AccessoriesCostPerPiece:  Float(v.AccessoriesCostPerPiece),
		MonthlyFixed:             Float(v.MonthlyFixed),
		MonthlyProduction:        Float(v.MonthlyProduction),
		Quantity:                 Float(v.Quantity),
		ProfitPercent:            Float(v.ProfitPercent),
	}
}
