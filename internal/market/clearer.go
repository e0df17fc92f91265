package market

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Clearer solves the capacity-constrained bulk market. It is a pure
// function object: Clear has no side effects and identical inputs yield
// bit-identical results.
type Clearer struct {
	logger *slog.Logger
}

// NewClearer creates a market clearer.
func NewClearer(logger *slog.Logger) *Clearer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clearer{logger: logger}
}

// Clear solves for the bulk clearing price under per-seller capacity
// ceilings and derives the allocation, concentration, and shadow values.
//
// The price is found by discrete fixed-point iteration over the supply
// curve: at each step, export demand is the demand of buyers whose
// domestic cost exceeds (1+markup) times the trial price, and the new
// trial price is the cost of the seller at which cumulative capacity
// first meets that demand. The loop stops when consecutive trial prices
// agree within tolerance or the iteration budget runs out; in the latter
// case Clear returns the last state together with ErrNotConverged so the
// caller can tell a stalled solve from a settled one.
func (c *Clearer) Clear(offers []Offer, demand Demand, cfg Config) (Result, error) {
	if err := demand.Validate(); err != nil {
		return Result{}, fmt.Errorf("validate demand: %w", err)
	}
	for _, o := range offers {
		if o.UnitCost < 0 {
			return Result{}, fmt.Errorf("offer %s: unit cost must be >= 0, got %g", o.ID, o.UnitCost)
		}
		if o.Capacity < 0 {
			return Result{}, fmt.Errorf("offer %s: capacity must be >= 0, got %g", o.ID, o.Capacity)
		}
	}

	stack := buildStack(offers, cfg.Excluded)
	totalCapacity := 0.0
	for _, o := range stack {
		totalCapacity += o.Capacity * demand.BulkShare
	}
	if len(stack) == 0 || totalCapacity <= 0 {
		return Result{}, fmt.Errorf("%w: no admissible supply", ErrNoEquilibrium)
	}

	price := stack[0].UnitCost
	tol := cfg.tolerance()
	budget := cfg.maxIterations()

	var (
		exportDemand   float64
		marginalSeller string
		converged      bool
		iterations     int
	)

	for iterations = 1; iterations <= budget; iterations++ {
		exportDemand = exportDemandAt(demand, price, cfg.SovereigntyMarkup)

		if exportDemand <= 0 && iterations == 1 {
			// Degenerate: nobody imports even at the cheapest seller's
			// cost, so there is no trade and no one is constrained.
			marginalSeller = stack[0].ID
			converged = true
			break
		}
		if exportDemand > totalCapacity {
			return Result{
				ClearingPrice: price,
				ExportDemand:  exportDemand,
				Iterations:    iterations,
			}, fmt.Errorf("%w: export demand %g exceeds admissible capacity %g", ErrNoEquilibrium, exportDemand, totalCapacity)
		}

		// Walk the supply curve to the marginal seller.
		cum := 0.0
		next := price
		for _, o := range stack {
			cum += o.Capacity * demand.BulkShare
			if cum >= exportDemand {
				next = o.UnitCost
				marginalSeller = o.ID
				break
			}
		}

		if math.Abs(next-price) < tol {
			price = next
			converged = true
			break
		}
		price = next
	}

	res := Result{
		ClearingPrice:  price,
		MarginalSeller: marginalSeller,
		ExportDemand:   exportDemand,
		Converged:      converged,
		Iterations:     iterations,
	}
	res.Allocations = allocate(stack, demand.BulkShare, price, exportDemand)
	res.Concentration = allocationConcentration(res.Allocations)
	res.ShadowValues = shadowValues(res.Allocations, price)

	c.logger.Debug("market cleared",
		"price", res.ClearingPrice,
		"marginal_seller", res.MarginalSeller,
		"export_demand", res.ExportDemand,
		"active_sellers", res.ActiveSellers(),
		"concentration", res.Concentration,
		"constrained", len(res.ShadowValues),
		"converged", res.Converged,
		"iterations", res.Iterations,
	)

	if !converged {
		return res, fmt.Errorf("%w after %d iterations (last price %g)", ErrNotConverged, res.Iterations-1, price)
	}
	return res, nil
}

// buildStack sorts admissible offers ascending by cost, ties broken by
// ID so the supply curve ordering is stable and deterministic.
func buildStack(offers []Offer, excluded map[string]bool) []Offer {
	stack := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if excluded[o.ID] {
			continue
		}
		stack = append(stack, o)
	}
	sort.Slice(stack, func(i, j int) bool {
		if stack[i].UnitCost != stack[j].UnitCost {
			return stack[i].UnitCost < stack[j].UnitCost
		}
		return stack[i].ID < stack[j].ID
	})
	return stack
}

// exportDemandAt sums bulk demand over buyers priced out of domestic
// production at the trial price.
func exportDemandAt(d Demand, price, markup float64) float64 {
	total := 0.0
	for id, w := range d.Weights {
		cost, ok := d.DomesticCosts[id]
		if !ok {
			continue
		}
		if cost > (1+markup)*price {
			total += d.BulkShare * w * d.Scale
		}
	}
	return total
}

// allocate fills export demand greedily, cheapest seller first, each up
// to its bulk capacity. Sellers priced above the clearing price receive
// nothing.
func allocate(stack []Offer, bulkShare, price, exportDemand float64) []Allocation {
	allocations := make([]Allocation, 0, len(stack))
	remaining := exportDemand
	total := 0.0
	for _, o := range stack {
		if o.UnitCost > price {
			break
		}
		available := o.Capacity * bulkShare
		filled := math.Min(available, remaining)
		if filled < 0 {
			filled = 0
		}
		allocations = append(allocations, Allocation{
			ID:        o.ID,
			UnitCost:  o.UnitCost,
			Available: available,
			Allocated: filled,
		})
		remaining -= filled
		total += filled
		if remaining <= 0 {
			break
		}
	}
	if total > 0 {
		for i := range allocations {
			allocations[i].Share = allocations[i].Allocated / total
		}
	}
	return allocations
}

func allocationConcentration(allocations []Allocation) float64 {
	hhi := 0.0
	any := false
	for _, a := range allocations {
		if a.Allocated > 0 {
			any = true
		}
		hhi += a.Share * a.Share
	}
	if !any {
		return 1.0
	}
	return hhi
}

// shadowValues assigns price minus own cost to every infra-marginal
// seller whose bulk capacity is filled.
func shadowValues(allocations []Allocation, price float64) map[string]float64 {
	mu := make(map[string]float64)
	for _, a := range allocations {
		if a.UnitCost < price && a.Binding() {
			mu[a.ID] = price - a.UnitCost
		}
	}
	if len(mu) == 0 {
		return nil
	}
	return mu
}
