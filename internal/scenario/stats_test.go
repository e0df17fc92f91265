package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"comptrade/internal/costmodel"
	"comptrade/internal/sourcing"
)

func ranking(isos ...string) []costmodel.UnitCost {
	costs := make([]costmodel.UnitCost, len(isos))
	for i, iso := range isos {
		costs[i] = costmodel.UnitCost{ISO3: iso, Total: 1 + float64(i)}
	}
	return costs
}

func TestSpearmanRank(t *testing.T) {
	base := ranking("AAA", "BBB", "CCC", "DDD")

	assert.Equal(t, 1.0, SpearmanRank(base, base))

	reversed := ranking("DDD", "CCC", "BBB", "AAA")
	assert.InDelta(t, -1.0, SpearmanRank(base, reversed), 1e-12)

	// One adjacent swap among four: rho = 1 - 6*2/(4*15) = 0.8.
	swapped := ranking("BBB", "AAA", "CCC", "DDD")
	assert.InDelta(t, 0.8, SpearmanRank(base, swapped), 1e-12)

	// Fewer than two common countries correlates trivially.
	assert.Equal(t, 1.0, SpearmanRank(base, ranking("ZZZ")))
	assert.Equal(t, 1.0, SpearmanRank(ranking("AAA"), ranking("AAA")))
}

func TestTopSetStable(t *testing.T) {
	base := ranking("AAA", "BBB", "CCC", "DDD", "EEE", "FFF")

	// Reordering within the prefix keeps the set stable.
	shuffled := ranking("CCC", "AAA", "BBB", "EEE", "DDD", "FFF")
	assert.True(t, TopSetStable(base, shuffled, 5))

	// A new entrant into the prefix breaks stability.
	entrant := ranking("AAA", "BBB", "CCC", "DDD", "FFF", "EEE")
	assert.False(t, TopSetStable(base, entrant, 5))

	// n larger than the rankings clamps instead of panicking.
	assert.True(t, TopSetStable(ranking("AAA", "BBB"), ranking("BBB", "AAA"), 5))
}

func TestAutarkyPremiums(t *testing.T) {
	costs := []costmodel.UnitCost{
		{ISO3: "AAA", Total: 1.0},
		{ISO3: "BBB", Total: 1.2},
		{ISO3: "CCC", Total: 1.5},
	}

	premiums := AutarkyPremiums(costs, 1.2)
	assert.Len(t, premiums, 3)

	// Cheapest producer compares against the runner-up and gains.
	assert.Equal(t, "AAA", premiums[0].ISO3)
	assert.InDelta(t, 1.0/1.2-1, premiums[0].VsCheapestForeign, 1e-12)
	assert.InDelta(t, 1.0/1.2-1, premiums[0].VsClearingPrice, 1e-12)

	// Everyone else compares against the cheapest producer.
	assert.InDelta(t, 0.2, premiums[1].VsCheapestForeign, 1e-12)
	assert.InDelta(t, 0.0, premiums[1].VsClearingPrice, 1e-12)
	assert.InDelta(t, 0.5, premiums[2].VsCheapestForeign, 1e-12)
	assert.InDelta(t, 0.25, premiums[2].VsClearingPrice, 1e-12)

	// Single country has no foreign comparison.
	solo := AutarkyPremiums(costs[:1], 0)
	assert.Equal(t, 0.0, solo[0].VsCheapestForeign)
	assert.Equal(t, 0.0, solo[0].VsClearingPrice)
}

func TestSortPremiums(t *testing.T) {
	premiums := []Premium{
		{ISO3: "AAA", VsCheapestForeign: -0.1},
		{ISO3: "CCC", VsCheapestForeign: 0.5},
		{ISO3: "BBB", VsCheapestForeign: 0.5},
	}
	SortPremiums(premiums)
	assert.Equal(t, "BBB", premiums[0].ISO3)
	assert.Equal(t, "CCC", premiums[1].ISO3)
	assert.Equal(t, "AAA", premiums[2].ISO3)
}

func TestExportShare(t *testing.T) {
	weights := map[string]float64{"AAA": 0.5, "BBB": 0.3, "CCC": 0.2}
	assignments := map[string][2]sourcing.Assignment{
		"AAA": {
			{Buyer: "AAA", Class: sourcing.Bulk, Source: "AAA"},
			{Buyer: "AAA", Class: sourcing.RealTime, Source: "AAA"},
		},
		"BBB": {
			{Buyer: "BBB", Class: sourcing.Bulk, Source: "AAA"},
			{Buyer: "BBB", Class: sourcing.RealTime, Source: "BBB"},
		},
		"CCC": {
			{Buyer: "CCC", Class: sourcing.Bulk, Source: "AAA"},
			{Buyer: "CCC", Class: sourcing.RealTime, Unserved: true},
		},
	}

	assert.InDelta(t, 0.5, ExportShare(assignments, weights, sourcing.Bulk), 1e-12)
	assert.InDelta(t, 0.0, ExportShare(assignments, weights, sourcing.RealTime), 1e-12)
}

func TestSovereigntyWelfareCost(t *testing.T) {
	weights := map[string]float64{"AAA": 0.5, "BBB": 0.5}
	frictionless := map[string][2]sourcing.Assignment{
		"AAA": {
			{Buyer: "AAA", Source: "AAA", DeliveredCost: 1.0},
			{Buyer: "AAA", Source: "AAA", DeliveredCost: 1.0},
		},
		"BBB": {
			{Buyer: "BBB", Source: "AAA", DeliveredCost: 1.0},
			{Buyer: "BBB", Unserved: true},
		},
	}
	policy := map[string][2]sourcing.Assignment{
		"AAA": {
			{Buyer: "AAA", Source: "AAA", DeliveredCost: 1.0},
			{Buyer: "AAA", Source: "AAA", DeliveredCost: 1.0},
		},
		"BBB": {
			{Buyer: "BBB", Source: "BBB", DeliveredCost: 1.2},
			{Buyer: "BBB", Unserved: true},
		},
	}

	delta := SovereigntyWelfareCost(frictionless, policy, weights)
	// Bulk: BBB pays 0.2 more, weighted 0.5/(0.5+0.5).
	assert.InDelta(t, 0.1, delta[0], 1e-12)
	// RealTime: BBB unserved both ways, only AAA counts, no change.
	assert.InDelta(t, 0.0, delta[1], 1e-12)
}
