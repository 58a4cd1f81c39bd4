// Package plan defines subscription tiers, the features each unlocks, and the
// signed application state the web layer keeps per browser.
package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFeatureLocked is returned when a plan does not include a feature.
var ErrFeatureLocked = errors.New("feature not included in plan")

// Plan is a subscription tier.
type Plan string

const (
	None  Plan = ""
	Basic Plan = "basic"
	Pro   Plan = "pro"
)

// Feature is a gated capability.
type Feature string

const (
	FeatureCalculate   Feature = "calculate"
	FeatureWarnings    Feature = "warnings"
	FeatureBatch       Feature = "batch_simulator"
	FeaturePDFExport   Feature = "pdf_export"
	FeatureTemplates   Feature = "templates"
	FeatureXLSXExport  Feature = "xlsx_export"
	FeatureSensitivity Feature = "sensitivity"
)

// Offer describes a plan as shown on the plan picker.
type Offer struct {
	Plan        Plan   `json:"plan"`
	Title       string `json:"title"`
	PriceINR    int    `json:"priceInr"`
	Description string `json:"description"`
	Popular     bool   `json:"popular"`
}

var offers = []Offer{
	{Plan: Basic, Title: "Basic", PriceINR: 249, Description: "Smart costing + forecasting"},
	{Plan: Pro, Title: "Pro", PriceINR: 500, Description: "All features, unlimited potential", Popular: true},
}

var features = map[Plan][]Feature{
	Basic: {FeatureCalculate, FeatureWarnings, FeatureBatch, FeaturePDFExport},
	Pro: {
		FeatureCalculate, FeatureWarnings, FeatureBatch, FeaturePDFExport,
		FeatureTemplates, FeatureXLSXExport, FeatureSensitivity,
	},
}

// Offers lists the purchasable plans.
func Offers() []Offer {
	out := make([]Offer, len(offers))
	copy(out, offers)
	return out
}

// Parse validates a plan name.
func Parse(raw string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(raw))); p {
	case Basic, Pro:
		return p, nil
	default:
		return None, fmt.Errorf("unknown plan %q", raw)
	}
}

// Allows reports whether p includes f.
func (p Plan) Allows(f Feature) bool {
	for _, have := range features[p] {
		if have == f {
			return true
		}
	}
	return false
}

// Features lists what p includes.
func (p Plan) Features() []Feature {
	out := make([]Feature, len(features[p]))
	copy(out, features[p])
	return out
}

// Require returns ErrFeatureLocked when p does not include f.
func (p Plan) Require(f Feature) error {
	if p.Allows(f) {
		return nil
	}
	name := string(p)
	if name == "" {
		name = "none"
	}
	return fmt.Errorf("%s on plan %s: %w", f, name, ErrFeatureLocked)
}
