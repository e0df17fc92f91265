package costmodel

import (
	"fmt"
	"log/slog"
	"sort"
)

// Model computes per-country unit production costs from structural
// parameters. It is pure: the same inputs always produce the same
// outputs, and nothing is cached between calls.
type Model struct {
	params Params
	logger *slog.Logger
}

// New creates a cost model after validating the structural parameters.
func New(params Params, logger *slog.Logger) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{params: params, logger: logger}, nil
}

// Params returns the structural parameters the model was built with.
func (m *Model) Params() Params {
	return m.params
}

// UnitCost computes the baseline unit cost for one country.
func (m *Model) UnitCost(c Country) (UnitCost, error) {
	return m.UnitCostWith(c, Overrides{})
}

// UnitCostWith computes the unit cost for one country under scenario
// overrides. The cost is three additive terms — energy, hardware plus
// networking, construction — with the cooling multiplier applied to the
// energy term only.
func (m *Model) UnitCostWith(c Country, o Overrides) (UnitCost, error) {
	p := m.params.withOverrides(o)
	if err := p.Validate(); err != nil {
		return UnitCost{}, fmt.Errorf("validate overridden params: %w", err)
	}

	pE := c.ElectricityUSDPerKWh
	if sub, ok := o.CostRecoveryPrices[c.ISO3]; ok {
		pE = sub
	}
	pE += o.ElectricityDeltaUSD

	if pE <= 0 {
		return UnitCost{}, &ValidationError{ISO3: c.ISO3, Field: "electricity_usd_kwh",
			Message: fmt.Sprintf("must be > 0, got %.4f", pE)}
	}
	if c.ConstructionUSDPerWatt < 0 {
		return UnitCost{}, &ValidationError{ISO3: c.ISO3, Field: "construction_usd_w",
			Message: fmt.Sprintf("must be >= 0, got %.4f", c.ConstructionUSDPerWatt)}
	}

	pue := p.PUEBase + p.PUESlope*max(0, c.PeakTempC-p.PUERefTempC)
	if o.PUECap > 0 && pue > o.PUECap {
		pue = o.PUECap
	}

	energy := pue * p.GPUTDPkW * pE
	hardware := p.HardwareCost()
	networking := p.NetworkingUSDPerHour
	tdpWatts := p.GPUTDPkW * 1000
	construction := tdpWatts * c.ConstructionUSDPerWatt / (p.DCLifeYears * p.HoursPerYear)

	return UnitCost{
		ISO3:         c.ISO3,
		Name:         c.Name,
		Total:        energy + hardware + networking + construction,
		Energy:       energy,
		Hardware:     hardware,
		Networking:   networking,
		Construction: construction,
		PUE:          pue,
	}, nil
}

// Rank computes unit costs for every country and returns them sorted
// ascending by total cost, ties broken by ISO3 so the ordering is
// reproducible. A single invalid record fails the whole ranking.
func (m *Model) Rank(countries []Country, o Overrides) ([]UnitCost, error) {
	if len(countries) == 0 {
		return nil, fmt.Errorf("no countries provided")
	}

	costs := make([]UnitCost, 0, len(countries))
	for _, c := range countries {
		u, err := m.UnitCostWith(c, o)
		if err != nil {
			return nil, fmt.Errorf("unit cost for %s: %w", c.ISO3, err)
		}
		costs = append(costs, u)
	}

	sort.Slice(costs, func(i, j int) bool {
		if costs[i].Total != costs[j].Total {
			return costs[i].Total < costs[j].Total
		}
		return costs[i].ISO3 < costs[j].ISO3
	})

	m.logger.Debug("ranked unit costs",
		"countries", len(costs),
		"cheapest", costs[0].ISO3,
		"cheapest_cost", costs[0].Total,
	)
	return costs, nil
}

// CostIndex builds an ISO3 -> total cost map from a computed ranking.
func CostIndex(costs []UnitCost) map[string]float64 {
	idx := make(map[string]float64, len(costs))
	for _, u := range costs {
		idx[u.ISO3] = u.Total
	}
	return idx
}

func (p Params) withOverrides(o Overrides) Params {
	if o.GPUPriceUSD > 0 {
		p.GPUPriceUSD = o.GPUPriceUSD
	}
	if o.GPUUtilization > 0 {
		p.GPUUtilization = o.GPUUtilization
	}
	return p
}
