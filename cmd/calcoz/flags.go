package main

import (
	"context"
	"strings"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/Simplici0/calcoz/internal/pricing"
	"github.com/Simplici0/calcoz/internal/store"
)

// inputFlags binds one float flag per costing input.
type inputFlags struct {
	values   map[pricing.Field]*float64
	template int64
}

func addInputFlags(fs *pflag.FlagSet) *inputFlags {
	f := &inputFlags{values: make(map[pricing.Field]*float64)}
	for _, field := range pricing.Fields() {
		f.values[field] = fs.Float64(flagName(field), field.Default(), field.Label())
	}
	fs.Int64VarP(&f.template, "template", "t", 0, "start from the saved template with this id")
	return f
}

// resolve loads the template, if any, and overlays the flags that were set.
func (f *inputFlags) resolve(ctx context.Context, a *app, fs *pflag.FlagSet) (pricing.Inputs, error) {
	var in pricing.Inputs
	if f.template > 0 {
		err := a.withStore(ctx, func(s *store.Store) error {
			t, err := s.GetTemplate(ctx, f.template)
			if err != nil {
				return err
			}
			in = t.Inputs
			return nil
		})
		if err != nil {
			return pricing.Inputs{}, err
		}
	}

	for field, v := range f.values {
		if fs.Changed(flagName(field)) {
			in.Set(field, *v)
		}
	}
	return in, nil
}

// flagName turns a field key such as "pressPackingCostPerPiece" into
// "press-packing-cost-per-piece".
func flagName(f pricing.Field) string {
	var b strings.Builder
	for i, r := range f.Key() {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
