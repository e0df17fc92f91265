package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCountry() Country {
	return Country{
		ISO3:                   "TST",
		Name:                   "Testland",
		ElectricityUSDPerKWh:   0.10,
		PeakTempC:              25.0,
		ConstructionUSDPerWatt: 10.0,
		Reliability:            1.0,
	}
}

func TestGoldenUnitCostBreakdown(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	u, err := m.UnitCost(testCountry())
	require.NoError(t, err)

	// Expected values derived by hand from the default calibration:
	// PUE = 1.08 + 0.015*(25-15) = 1.23
	// energy = 1.23 * 0.700 * 0.10
	// hardware = 25000 / (3 * 8766 * 0.70)
	// construction = 700 * 10 / (15 * 8766)
	assert.InDelta(t, 1.23, u.PUE, 1e-9)
	assert.InDelta(t, 0.08610, u.Energy, 1e-5)
	assert.InDelta(t, 1.35806, u.Hardware, 1e-5)
	assert.InDelta(t, 0.15, u.Networking, 1e-9)
	assert.InDelta(t, 0.05324, u.Construction, 1e-5)
	assert.InDelta(t, u.Energy+u.Hardware+u.Networking+u.Construction, u.Total, 1e-12)
	assert.InDelta(t, 1.64740, u.Total, 1e-4)
}

func TestHardwareTermDominates(t *testing.T) {
	// The amortized hardware term is the single largest component and is
	// identical across countries, which keeps the cross-country spread narrow.
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	u, err := m.UnitCost(testCountry())
	require.NoError(t, err)

	assert.Greater(t, u.Hardware, u.Energy)
	assert.Greater(t, u.Hardware, u.Construction)
	assert.Greater(t, u.Hardware/u.Total, 0.5)
}

func TestCostMonotonicity(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	base := testCountry()
	baseCost, err := m.UnitCost(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Country)
	}{
		{"electricity price up", func(c *Country) { c.ElectricityUSDPerKWh += 0.05 }},
		{"peak temperature up", func(c *Country) { c.PeakTempC += 10 }},
		{"construction price up", func(c *Country) { c.ConstructionUSDPerWatt += 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			u, err := m.UnitCost(c)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, u.Total, baseCost.Total,
				"increasing a single input must never decrease unit cost")
		})
	}
}

func TestTemperatureBelowReferenceHasNoCoolingPenalty(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	cold := testCountry()
	cold.PeakTempC = 5.0
	colder := cold
	colder.PeakTempC = -20.0

	u1, err := m.UnitCost(cold)
	require.NoError(t, err)
	u2, err := m.UnitCost(colder)
	require.NoError(t, err)

	assert.InDelta(t, 1.08, u1.PUE, 1e-9)
	assert.InDelta(t, u1.Total, u2.Total, 1e-12)
}

func TestPUECapOverride(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	hot := testCountry()
	hot.PeakTempC = 45.0 // uncapped PUE would be 1.08 + 0.015*30 = 1.53

	uncapped, err := m.UnitCost(hot)
	require.NoError(t, err)
	capped, err := m.UnitCostWith(hot, Overrides{PUECap: 1.20})
	require.NoError(t, err)

	assert.InDelta(t, 1.53, uncapped.PUE, 1e-9)
	assert.InDelta(t, 1.20, capped.PUE, 1e-9)
	assert.Less(t, capped.Total, uncapped.Total)
}

func TestCostRecoverySubstitution(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	subsidized := testCountry()
	subsidized.ISO3 = "IRN"
	subsidized.ElectricityUSDPerKWh = 0.005

	base, err := m.UnitCost(subsidized)
	require.NoError(t, err)
	adjusted, err := m.UnitCostWith(subsidized, Overrides{
		CostRecoveryPrices: map[string]float64{"IRN": 0.085},
	})
	require.NoError(t, err)

	assert.Greater(t, adjusted.Total, base.Total)
	// Substitution only affects the energy term.
	assert.InDelta(t, base.Hardware, adjusted.Hardware, 1e-12)
	assert.InDelta(t, base.Construction, adjusted.Construction, 1e-12)

	// Countries not in the substitution table are untouched.
	other := testCountry()
	u, err := m.UnitCostWith(other, Overrides{
		CostRecoveryPrices: map[string]float64{"IRN": 0.085},
	})
	require.NoError(t, err)
	baseOther, err := m.UnitCost(other)
	require.NoError(t, err)
	assert.InDelta(t, baseOther.Total, u.Total, 1e-12)
}

func TestGPUPriceOverride(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	base, err := m.UnitCost(testCountry())
	require.NoError(t, err)
	expensive, err := m.UnitCostWith(testCountry(), Overrides{GPUPriceUSD: 30_000})
	require.NoError(t, err)

	assert.InDelta(t, base.Hardware*30.0/25.0, expensive.Hardware, 1e-9)
	assert.InDelta(t, base.Energy, expensive.Energy, 1e-12)
}

func TestInvalidInputsRejected(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Country)
	}{
		{"zero electricity price", func(c *Country) { c.ElectricityUSDPerKWh = 0 }},
		{"negative electricity price", func(c *Country) { c.ElectricityUSDPerKWh = -0.05 }},
		{"negative construction price", func(c *Country) { c.ConstructionUSDPerWatt = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCountry()
			tt.mutate(&c)
			_, err := m.UnitCost(c)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestInvalidParamsRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero gpu life", func(p *Params) { p.GPULifeYears = 0 }},
		{"negative utilization", func(p *Params) { p.GPUUtilization = -0.5 }},
		{"utilization above one", func(p *Params) { p.GPUUtilization = 1.5 }},
		{"zero hours per year", func(p *Params) { p.HoursPerYear = 0 }},
		{"zero dc life", func(p *Params) { p.DCLifeYears = 0 }},
		{"zero gpu price", func(p *Params) { p.GPUPriceUSD = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := New(p, nil)
			require.Error(t, err)
		})
	}
}

func TestRankOrderingAndTieBreak(t *testing.T) {
	m, err := New(DefaultParams(), nil)
	require.NoError(t, err)

	a := testCountry()
	a.ISO3 = "BBB"
	b := testCountry() // identical cost, different ID
	b.ISO3 = "AAA"
	c := testCountry()
	c.ISO3 = "CCC"
	c.ElectricityUSDPerKWh = 0.02

	ranked, err := m.Rank([]Country{a, b, c}, Overrides{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "CCC", ranked[0].ISO3, "cheapest electricity ranks first")
	assert.Equal(t, "AAA", ranked[1].ISO3, "equal costs break ties lexicographically")
	assert.Equal(t, "BBB", ranked[2].ISO3)
}

func TestReliabilityAdjustedCost(t *testing.T) {
	u := UnitCost{Total: 2.0}
	assert.InDelta(t, 2.0, u.ReliabilityAdjusted(1.0), 1e-12)
	assert.InDelta(t, 4.0, u.ReliabilityAdjusted(0.5), 1e-12)
	assert.InDelta(t, 2.0, u.ReliabilityAdjusted(0), 1e-12, "out-of-range index means no adjustment")
}
