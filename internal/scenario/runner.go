package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"comptrade/internal/costmodel"
	"comptrade/internal/market"
	"comptrade/internal/sourcing"
)

// TopN is the ranking prefix checked for stability across scenarios.
const TopN = 5

// Inputs bundles everything a scenario run derives its state from.
// Runs never mutate Inputs; each scenario recomputes from scratch.
type Inputs struct {
	Countries []costmodel.Country
	Latency   *sourcing.LatencyTable

	Model costmodel.Params
	Trade sourcing.Params

	// DemandScale is global demand per period (GPU-hours).
	DemandScale float64
	// BulkShare is the training share of demand and capacity.
	BulkShare float64
}

// Validate checks the run inputs.
func (in Inputs) Validate() error {
	if len(in.Countries) == 0 {
		return fmt.Errorf("no countries")
	}
	if err := in.Model.Validate(); err != nil {
		return fmt.Errorf("model params: %w", err)
	}
	if err := in.Trade.Validate(); err != nil {
		return fmt.Errorf("trade params: %w", err)
	}
	if in.DemandScale < 0 {
		return fmt.Errorf("demand scale must be >= 0, got %g", in.DemandScale)
	}
	if in.BulkShare < 0 || in.BulkShare > 1 {
		return fmt.Errorf("bulk share must be in [0, 1], got %g", in.BulkShare)
	}
	return nil
}

// Run is the outcome of one scenario.
type Run struct {
	ID       string   `json:"id"`
	Scenario Scenario `json:"scenario"`

	Costs []costmodel.UnitCost `json:"costs"`

	Equilibrium market.Result `json:"equilibrium"`
	// SolveErr carries a degenerate market outcome (no equilibrium,
	// non-convergence) as a reportable result rather than a batch
	// failure. Empty on a settled solve.
	SolveErr string `json:"solve_err,omitempty"`

	// Assignments per buyer: index 0 bulk, index 1 real-time.
	Assignments map[string][2]sourcing.Assignment `json:"assignments"`
	Regimes     map[string]sourcing.Regime        `json:"regimes"`

	// RevenueHHI is the revenue-share concentration per class.
	RevenueHHI [2]float64 `json:"revenue_hhi"`
	// AvgDeliveredCost is the demand-weighted delivered cost per class;
	// unserved buyers are skipped.
	AvgDeliveredCost [2]float64 `json:"avg_delivered_cost"`

	// RankCorrelation is the Spearman correlation of this scenario's
	// cost ranking against the baseline's. TopStable reports whether the
	// cheapest-TopN set is unchanged.
	RankCorrelation float64 `json:"rank_correlation"`
	TopStable       bool    `json:"top_stable"`
}

// Runner executes a scenario battery over fixed inputs.
type Runner struct {
	inputs Inputs
	logger *slog.Logger
}

// NewRunner validates the inputs and returns a runner.
func NewRunner(inputs Inputs, logger *slog.Logger) (*Runner, error) {
	if err := inputs.Validate(); err != nil {
		return nil, fmt.Errorf("validate inputs: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{inputs: inputs, logger: logger}, nil
}

// Run executes every scenario. Scenarios are independent, so they fan
// out on an errgroup; results come back ordered by scenario index
// regardless of completion order, and rank correlations are computed
// against the first scenario, which is the baseline by convention.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Run, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios")
	}

	runs := make([]Run, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := r.runOne(sc)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base := runs[0]
	for i := range runs {
		runs[i].RankCorrelation = SpearmanRank(base.Costs, runs[i].Costs)
		runs[i].TopStable = TopSetStable(base.Costs, runs[i].Costs, TopN)
	}

	r.logger.Info("scenario batch complete",
		"scenarios", len(runs),
		"baseline_price", base.Equilibrium.ClearingPrice,
	)
	return runs, nil
}

func (r *Runner) runOne(sc Scenario) (Run, error) {
	in := r.inputs

	model, err := costmodel.New(in.Model, r.logger)
	if err != nil {
		return Run{}, err
	}
	costs, err := model.Rank(in.Countries, sc.Overrides)
	if err != nil {
		return Run{}, fmt.Errorf("rank costs: %w", err)
	}

	trade := in.Trade
	if sc.SovereigntyMarkup != nil {
		trade.SovereigntyMarkup = *sc.SovereigntyMarkup
	}
	selector, err := sourcing.NewSelector(trade, in.Latency, r.logger)
	if err != nil {
		return Run{}, err
	}

	costIndex := costmodel.CostIndex(costs)
	sanctioned := make(map[string]bool)
	buyers := make([]string, 0, len(in.Countries))
	sellers := make([]sourcing.Seller, 0, len(in.Countries))
	weights := make(map[string]float64, len(in.Countries))
	offers := make([]market.Offer, 0, len(in.Countries))
	for _, c := range in.Countries {
		buyers = append(buyers, c.ISO3)
		weights[c.ISO3] = c.DemandWeight
		sellers = append(sellers, sourcing.Seller{
			ID:         c.ISO3,
			UnitCost:   costIndex[c.ISO3],
			Sanctioned: c.Sanctioned,
		})
		offers = append(offers, market.Offer{
			ID:       c.ISO3,
			UnitCost: costIndex[c.ISO3],
			Capacity: c.CapacityGPUHours,
		})
		if c.Sanctioned {
			sanctioned[c.ISO3] = true
		}
	}

	assignments := selector.AssignAll(buyers, sellers, sc.ExcludeSanctioned)
	regimes := make(map[string]sourcing.Regime, len(assignments))
	for buyer, pair := range assignments {
		regimes[buyer] = sourcing.ClassifyRegime(pair[0], pair[1])
	}

	run := Run{
		ID:          uuid.NewString(),
		Scenario:    sc,
		Costs:       costs,
		Assignments: assignments,
		Regimes:     regimes,
	}
	for class := 0; class < 2; class++ {
		byClass := make([]sourcing.Assignment, 0, len(assignments))
		for _, pair := range assignments {
			byClass = append(byClass, pair[class])
		}
		run.RevenueHHI[class] = market.Concentration(sourcing.RevenueShares(byClass, weights))
		run.AvgDeliveredCost[class] = weightedDeliveredCost(byClass, weights)
	}

	cfg := market.Config{SovereigntyMarkup: trade.SovereigntyMarkup}
	if sc.ExcludeSanctioned {
		cfg.Excluded = sanctioned
	}
	demand := market.Demand{
		Weights:       weights,
		DomesticCosts: costIndex,
		Scale:         in.DemandScale,
		BulkShare:     in.BulkShare,
	}
	result, err := market.NewClearer(r.logger).Clear(offers, demand, cfg)
	switch {
	case err == nil:
		run.Equilibrium = result
	case errors.Is(err, market.ErrNoEquilibrium) || errors.Is(err, market.ErrNotConverged):
		run.Equilibrium = result
		run.SolveErr = err.Error()
		r.logger.Warn("degenerate market outcome", "scenario", sc.Name, "err", err)
	default:
		return Run{}, fmt.Errorf("clear market: %w", err)
	}
	return run, nil
}

// weightedDeliveredCost averages delivered cost over served buyers,
// weighted by demand and renormalized over the served set.
func weightedDeliveredCost(assignments []sourcing.Assignment, weights map[string]float64) float64 {
	total, served := 0.0, 0.0
	for _, a := range assignments {
		if a.Unserved {
			continue
		}
		w := weights[a.Buyer]
		total += w * a.DeliveredCost
		served += w
	}
	if served <= 0 {
		return 0
	}
	return total / served
}
