package scenario

import "comptrade/internal/costmodel"

// Scenario is one named counterfactual: a set of cost-model overrides
// plus optional trade-policy knobs. The zero overrides with no knobs is
// the baseline.
type Scenario struct {
	Name string `json:"name"`

	Overrides costmodel.Overrides `json:"overrides"`

	// SovereigntyMarkup replaces the baseline markup when non-nil.
	SovereigntyMarkup *float64 `json:"sovereignty_markup,omitempty"`

	// ExcludeSanctioned removes sanctioned sellers from both the
	// sourcing rule and the market stack.
	ExcludeSanctioned bool `json:"exclude_sanctioned,omitempty"`
}

func markup(v float64) *float64 { return &v }

// Builtin returns the standard sensitivity battery. The first entry is
// always the baseline; rank correlations are computed against it.
// costRecovery maps subsidizing countries to cost-reflective
// electricity prices and may be nil, in which case that scenario is
// omitted.
func Builtin(costRecovery map[string]float64) []Scenario {
	scenarios := []Scenario{
		{Name: "baseline"},
		{Name: "electricity +$0.01/kWh", Overrides: costmodel.Overrides{ElectricityDeltaUSD: 0.01}},
		{Name: "electricity -$0.01/kWh", Overrides: costmodel.Overrides{ElectricityDeltaUSD: -0.01}},
		{Name: "gpu price +20%", Overrides: costmodel.Overrides{GPUPriceUSD: 30_000}},
		{Name: "gpu price -20%", Overrides: costmodel.Overrides{GPUPriceUSD: 20_000}},
		{Name: "pue capped at 1.20", Overrides: costmodel.Overrides{PUECap: 1.20}},
		{Name: "no sovereignty markup", SovereigntyMarkup: markup(0)},
		{Name: "sovereignty markup 20%", SovereigntyMarkup: markup(0.20)},
		{Name: "sanctions enforced", ExcludeSanctioned: true},
	}
	if len(costRecovery) > 0 {
		scenarios = append(scenarios, Scenario{
			Name:      "cost-recovery electricity",
			Overrides: costmodel.Overrides{CostRecoveryPrices: costRecovery},
		})
	}
	return scenarios
}
