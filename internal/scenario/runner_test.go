package scenario

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptrade/internal/costmodel"
	"comptrade/internal/sourcing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// threeCountryInputs builds a small world where electricity prices
// alone order the costs: AAA < BBB < CCC.
func threeCountryInputs() Inputs {
	countries := []costmodel.Country{
		{ISO3: "AAA", Name: "Alphaland", ElectricityUSDPerKWh: 0.03, PeakTempC: 15,
			ConstructionUSDPerWatt: 5, CapacityGPUHours: 1e12, DemandWeight: 0.5, Reliability: 1},
		{ISO3: "BBB", Name: "Betaland", ElectricityUSDPerKWh: 0.08, PeakTempC: 15,
			ConstructionUSDPerWatt: 5, CapacityGPUHours: 1e12, DemandWeight: 0.3, Reliability: 1},
		{ISO3: "CCC", Name: "Gammaland", ElectricityUSDPerKWh: 0.20, PeakTempC: 15,
			ConstructionUSDPerWatt: 5, CapacityGPUHours: 1e12, DemandWeight: 0.2, Reliability: 1, Sanctioned: true},
	}
	latency := sourcing.NewLatencyTable()
	for _, from := range []string{"AAA", "BBB", "CCC"} {
		for _, to := range []string{"AAA", "BBB", "CCC"} {
			latency.Set(from, to, 50)
		}
	}
	return Inputs{
		Countries:   countries,
		Latency:     latency,
		Model:       costmodel.DefaultParams(),
		Trade:       sourcing.DefaultParams(),
		DemandScale: 1000,
		BulkShare:   0.5,
	}
}

func TestRunnerBatchOrderAndBaseline(t *testing.T) {
	runner, err := NewRunner(threeCountryInputs(), testLogger())
	require.NoError(t, err)

	scenarios := Builtin(nil)
	runs, err := runner.Run(context.Background(), scenarios)
	require.NoError(t, err)
	require.Len(t, runs, len(scenarios))

	// Results come back in scenario order regardless of completion order.
	for i, sc := range scenarios {
		assert.Equal(t, sc.Name, runs[i].Scenario.Name)
	}

	// The baseline correlates with itself perfectly.
	base := runs[0]
	assert.Equal(t, "baseline", base.Scenario.Name)
	assert.Equal(t, 1.0, base.RankCorrelation)
	assert.True(t, base.TopStable)

	// Each run carries a distinct ID.
	seen := map[string]bool{}
	for _, run := range runs {
		require.NotEmpty(t, run.ID)
		assert.False(t, seen[run.ID])
		seen[run.ID] = true
	}

	// Electricity prices order the ranking in every scenario here.
	for _, run := range runs {
		require.Len(t, run.Costs, 3)
		assert.Equal(t, "AAA", run.Costs[0].ISO3, run.Scenario.Name)
	}
}

func TestRunnerBaselineNoTrade(t *testing.T) {
	runner, err := NewRunner(threeCountryInputs(), testLogger())
	require.NoError(t, err)

	runs, err := runner.Run(context.Background(), []Scenario{{Name: "baseline"}})
	require.NoError(t, err)
	run := runs[0]

	// At the 10% markup nobody's domestic cost exceeds the threshold,
	// so the bulk market clears degenerately at the cheapest cost.
	require.Empty(t, run.SolveErr)
	assert.True(t, run.Equilibrium.Converged)
	assert.Equal(t, 0.0, run.Equilibrium.ExportDemand)
	assert.Equal(t, run.Costs[0].Total, run.Equilibrium.ClearingPrice)

	// Everyone self-supplies both classes.
	for buyer, regime := range run.Regimes {
		assert.Equal(t, sourcing.FullDomestic, regime, buyer)
	}
	weights := map[string]float64{"AAA": 0.5, "BBB": 0.3, "CCC": 0.2}
	assert.Equal(t, 0.0, ExportShare(run.Assignments, weights, sourcing.Bulk))
}

func TestRunnerZeroMarkupOpensTrade(t *testing.T) {
	runner, err := NewRunner(threeCountryInputs(), testLogger())
	require.NoError(t, err)

	runs, err := runner.Run(context.Background(), []Scenario{
		{Name: "baseline"},
		{Name: "free trade", SovereigntyMarkup: markup(0)},
	})
	require.NoError(t, err)
	free := runs[1]

	// With no markup, BBB and CCC import bulk from AAA: export demand
	// is their weighted bulk share of global demand.
	require.Empty(t, free.SolveErr)
	assert.InDelta(t, 0.5*(0.3+0.2)*1000, free.Equilibrium.ExportDemand, 1e-9)
	assert.Equal(t, "AAA", free.Equilibrium.MarginalSeller)
	assert.Equal(t, 1, free.Equilibrium.ActiveSellers())
	assert.Equal(t, 1.0, free.Equilibrium.Concentration)

	// Sourcing side agrees: everyone buys from AAA, revenue fully
	// concentrated.
	for buyer, pair := range free.Assignments {
		assert.Equal(t, "AAA", pair[0].Source, buyer)
	}
	assert.Equal(t, 1.0, free.RevenueHHI[0])

	// The baseline ranking is unchanged by a trade-side knob.
	assert.Equal(t, 1.0, free.RankCorrelation)
	assert.True(t, free.TopStable)
}

func TestRunnerSanctionsExcludeSeller(t *testing.T) {
	runner, err := NewRunner(threeCountryInputs(), testLogger())
	require.NoError(t, err)

	runs, err := runner.Run(context.Background(), []Scenario{
		{Name: "baseline"},
		{Name: "sanctions", ExcludeSanctioned: true, SovereigntyMarkup: markup(0)},
	})
	require.NoError(t, err)
	sanctions := runs[1]

	// CCC never supplies: not in the allocation stack, and no buyer
	// sources from it.
	for _, a := range sanctions.Equilibrium.Allocations {
		assert.NotEqual(t, "CCC", a.ID)
	}
	for buyer, pair := range sanctions.Assignments {
		assert.NotEqual(t, "CCC", pair[0].Source, buyer)
		assert.NotEqual(t, "CCC", pair[1].Source, buyer)
	}
}

func TestRunnerReportsDegenerateSolve(t *testing.T) {
	inputs := threeCountryInputs()
	for i := range inputs.Countries {
		inputs.Countries[i].CapacityGPUHours = 10
	}
	inputs.DemandScale = 1e6

	runner, err := NewRunner(inputs, testLogger())
	require.NoError(t, err)

	// Excess demand is a reportable outcome, not a batch failure.
	runs, err := runner.Run(context.Background(), []Scenario{
		{Name: "infeasible", SovereigntyMarkup: markup(0)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, runs[0].SolveErr)
	assert.False(t, runs[0].Equilibrium.Converged)
}

func TestNewRunnerValidatesInputs(t *testing.T) {
	inputs := threeCountryInputs()
	inputs.BulkShare = 2

	_, err := NewRunner(inputs, testLogger())
	require.Error(t, err)

	_, err = NewRunner(Inputs{}, testLogger())
	require.Error(t, err)
}

func TestRunnerRejectsEmptyBatch(t *testing.T) {
	runner, err := NewRunner(threeCountryInputs(), testLogger())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestBuiltinBattery(t *testing.T) {
	battery := Builtin(nil)
	require.NotEmpty(t, battery)
	assert.Equal(t, "baseline", battery[0].Name)

	withRecovery := Builtin(map[string]float64{"CCC": 0.12})
	assert.Len(t, withRecovery, len(battery)+1)
	assert.Equal(t, "cost-recovery electricity", withRecovery[len(withRecovery)-1].Name)
}
