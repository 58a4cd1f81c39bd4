package main

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// parseInputsForm coerces submitted text into Inputs. Empty or unparsable
// values become 0, except an empty margin which keeps its default.
func parseInputsForm(form url.Values) pricing.Inputs {
	var in pricing.Inputs
	for _, f := range pricing.Fields() {
		raw := strings.TrimSpace(form.Get(f.Key()))
		if raw == "" && f == pricing.FieldProfitPercent {
			continue
		}
		in.Set(f, coerceFloat(raw))
	}
	return in
}

func coerceFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

type fieldView struct {
	Key   string
	Label string
	Value string
}

// fieldViews prepares the input form, prefilled with the supplied values of in.
func fieldViews(in pricing.Inputs) []fieldView {
	fields := pricing.Fields()
	out := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		v := fieldView{Key: f.Key(), Label: f.Label()}
		if value, ok := in.Get(f); ok {
			v.Value = strconv.FormatFloat(value, 'f', -1, 64)
		}
		out = append(out, v)
	}
	return out
}
