package sourcing

import (
	"fmt"
	"log/slog"
	"sort"
)

// Selector evaluates delivered costs and picks the cheapest admissible
// seller for each buyer and service class.
type Selector struct {
	params  Params
	latency *LatencyTable
	logger  *slog.Logger
}

// NewSelector creates a selector after validating the trade-cost
// parameters. The latency table is required for the RealTime class.
func NewSelector(params Params, latency *LatencyTable, logger *slog.Logger) (*Selector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}
	if latency == nil {
		latency = NewLatencyTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{params: params, latency: latency, logger: logger}, nil
}

// DeliveredCost computes the delivered cost of one seller's service to a
// buyer:
//
//	(1 + markup_if_foreign) * (1 + tau * latency_if_realtime) * seller_cost
//
// For Bulk the latency multiplier is always 1. For RealTime the route is
// infeasible (ok=false) when latency exceeds the ceiling or the pair is
// unmeasured.
func (s *Selector) DeliveredCost(buyer string, seller Seller, class ServiceClass) (cost float64, ok bool) {
	latencyMult := 1.0
	if class == RealTime {
		ms, found := s.latency.Lookup(seller.ID, buyer)
		if !found || ms > s.params.LatencyCeilingMS {
			return 0, false
		}
		latencyMult = 1 + s.params.LatencyRate*ms
	}

	markupMult := 1.0
	if seller.ID != buyer {
		markupMult = 1 + s.params.SovereigntyMarkup
	}

	return markupMult * latencyMult * seller.UnitCost, true
}

// Select finds the cheapest admissible seller for a buyer and class.
// Candidates are evaluated in ascending ID order and replaced only on a
// strict improvement, so equal delivered costs resolve to the lowest
// seller ID. When excludeSanctioned is set, sanctioned sellers are never
// candidates. The buyer itself may appear among the sellers; its own
// offer carries no markup.
func (s *Selector) Select(buyer string, class ServiceClass, sellers []Seller, excludeSanctioned bool) Assignment {
	ordered := make([]Seller, len(sellers))
	copy(ordered, sellers)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	assignment := Assignment{Buyer: buyer, Class: class, Unserved: true}
	for _, seller := range ordered {
		if excludeSanctioned && seller.Sanctioned {
			continue
		}
		cost, ok := s.DeliveredCost(buyer, seller, class)
		if !ok {
			continue
		}
		if assignment.Unserved || cost < assignment.DeliveredCost {
			assignment.Source = seller.ID
			assignment.DeliveredCost = cost
			assignment.Unserved = false
		}
	}

	if assignment.Unserved {
		s.logger.Warn("buyer unserved",
			"buyer", buyer,
			"class", class.String(),
			"candidates", len(sellers),
		)
	}
	return assignment
}

// AssignAll computes assignments for every buyer across both service
// classes, returning them keyed by buyer ID.
func (s *Selector) AssignAll(buyers []string, sellers []Seller, excludeSanctioned bool) map[string][2]Assignment {
	out := make(map[string][2]Assignment, len(buyers))
	for _, buyer := range buyers {
		out[buyer] = [2]Assignment{
			s.Select(buyer, Bulk, sellers, excludeSanctioned),
			s.Select(buyer, RealTime, sellers, excludeSanctioned),
		}
	}
	return out
}

// RevenueShares aggregates buyer demand weights by selected source for
// one service class. Unserved buyers contribute nothing.
func RevenueShares(assignments []Assignment, weights map[string]float64) map[string]float64 {
	shares := make(map[string]float64)
	for _, a := range assignments {
		if a.Unserved {
			continue
		}
		shares[a.Source] += weights[a.Buyer]
	}
	return shares
}
