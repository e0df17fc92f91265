package market

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two degenerate outcomes a caller must be able
// to tell apart from a healthy solve.
var (
	// ErrNoEquilibrium means no admissible supply exists (all sellers
	// excluded, zero total capacity) or export demand exceeds total
	// admissible capacity at every price.
	ErrNoEquilibrium = errors.New("market: no equilibrium")

	// ErrNotConverged means the fixed-point loop exhausted its iteration
	// budget without the trial price stabilizing. The accompanying
	// Result still carries the last trial state for diagnostics.
	ErrNotConverged = errors.New("market: clearing price did not converge")
)

// Offer is one seller's position on the supply curve.
type Offer struct {
	ID       string  `json:"id"`
	UnitCost float64 `json:"unit_cost"`
	Capacity float64 `json:"capacity"` // per-period ceiling, same units as demand
}

// Demand describes the buyer side of the bulk market.
type Demand struct {
	// Weights are per-buyer shares of global demand; they should sum to 1.
	Weights map[string]float64 `json:"weights"`

	// DomesticCosts are each buyer's own unit cost, used to decide which
	// buyers import at a given trial price.
	DomesticCosts map[string]float64 `json:"domestic_costs"`

	// Scale is total global demand per period (Q_total).
	Scale float64 `json:"scale"`

	// BulkShare is the fraction of demand (and of each seller's
	// capacity) attributable to the bulk class (alpha).
	BulkShare float64 `json:"bulk_share"`
}

// Validate checks the demand block.
func (d Demand) Validate() error {
	if d.Scale < 0 {
		return fmt.Errorf("demand scale must be >= 0, got %g", d.Scale)
	}
	if d.BulkShare < 0 || d.BulkShare > 1 {
		return fmt.Errorf("bulk share must be in [0, 1], got %g", d.BulkShare)
	}
	for id, w := range d.Weights {
		if w < 0 {
			return fmt.Errorf("demand weight for %s must be >= 0, got %g", id, w)
		}
	}
	return nil
}

// Config bounds the fixed-point iteration and applies policy knobs.
type Config struct {
	// SovereigntyMarkup shifts the import threshold: a buyer imports
	// only when its domestic cost exceeds (1+markup) times the price.
	SovereigntyMarkup float64 `json:"sovereignty_markup"`

	// Excluded sellers never supply (sanctions).
	Excluded map[string]bool `json:"excluded,omitempty"`

	// MaxIterations caps the fixed-point loop; 0 means DefaultMaxIterations.
	MaxIterations int `json:"max_iterations"`

	// Tolerance is the convergence threshold on consecutive trial
	// prices; 0 means DefaultTolerance.
	Tolerance float64 `json:"tolerance"`
}

const (
	// DefaultMaxIterations bounds worst-case work in the fixed-point loop.
	DefaultMaxIterations = 30

	// DefaultTolerance on consecutive trial prices. The price domain is
	// the finite set of seller costs, so convergence is normally exact.
	DefaultTolerance = 1e-4

	// bindingFill is the fraction of available capacity above which an
	// allocation counts as binding for shadow-value purposes.
	bindingFill = 0.99
)

func (c Config) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return DefaultMaxIterations
}

func (c Config) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return DefaultTolerance
}

// Allocation is one seller's slice of cleared export demand.
type Allocation struct {
	ID        string  `json:"id"`
	UnitCost  float64 `json:"unit_cost"`
	Available float64 `json:"available"` // capacity devoted to the bulk class
	Allocated float64 `json:"allocated"`
	Share     float64 `json:"share"` // of total cleared demand
}

// Binding reports whether the seller's bulk capacity is (within
// tolerance) fully allocated.
func (a Allocation) Binding() bool {
	return a.Available > 0 && a.Allocated >= a.Available*bindingFill
}

// Result is the cleared market state for one scenario. It is recomputed
// from scratch per scenario, never mutated incrementally.
type Result struct {
	ClearingPrice  float64 `json:"clearing_price"`
	MarginalSeller string  `json:"marginal_seller,omitempty"`
	ExportDemand   float64 `json:"export_demand"`

	Allocations []Allocation `json:"allocations"`

	// Concentration is the Herfindahl-style sum of squared allocation
	// shares, in (0, 1]; exactly 1 when a single seller serves all
	// cleared demand.
	Concentration float64 `json:"concentration"`

	// ShadowValues map capacity-constrained sellers to the marginal
	// value of one more unit of capacity (price minus own cost).
	ShadowValues map[string]float64 `json:"shadow_values,omitempty"`

	Converged  bool `json:"converged"`
	Iterations int  `json:"iterations"`
}

// ActiveSellers counts sellers with positive allocation.
func (r Result) ActiveSellers() int {
	n := 0
	for _, a := range r.Allocations {
		if a.Allocated > 0 {
			n++
		}
	}
	return n
}

// Concentration computes a Herfindahl-style index from a map of raw
// (non-negative) values, normalizing by their sum. An empty or all-zero
// map yields 1, matching the single-supplier degenerate reading.
func Concentration(values map[string]float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return 1.0
	}
	hhi := 0.0
	for _, v := range values {
		s := v / total
		hhi += s * s
	}
	return hhi
}
