package scenario

import (
	"sort"

	"comptrade/internal/costmodel"
	"comptrade/internal/sourcing"
)

// SpearmanRank computes the Spearman rank correlation between two cost
// rankings over their common countries. Rankings with fewer than two
// common entries correlate trivially at 1.
func SpearmanRank(a, b []costmodel.UnitCost) float64 {
	rankA := ranksByISO(a)
	rankB := ranksByISO(b)

	n := 0
	sumSq := 0.0
	for iso, ra := range rankA {
		rb, ok := rankB[iso]
		if !ok {
			continue
		}
		d := float64(ra - rb)
		sumSq += d * d
		n++
	}
	if n < 2 {
		return 1.0
	}
	nf := float64(n)
	return 1 - 6*sumSq/(nf*(nf*nf-1))
}

func ranksByISO(costs []costmodel.UnitCost) map[string]int {
	ranks := make(map[string]int, len(costs))
	for i, u := range costs {
		ranks[u.ISO3] = i
	}
	return ranks
}

// TopSetStable reports whether the cheapest-n sets of the two rankings
// coincide (as sets; order within the prefix may differ).
func TopSetStable(base, other []costmodel.UnitCost, n int) bool {
	if n > len(base) {
		n = len(base)
	}
	if n > len(other) {
		n = len(other)
	}
	set := make(map[string]bool, n)
	for _, u := range base[:n] {
		set[u.ISO3] = true
	}
	for _, u := range other[:n] {
		if !set[u.ISO3] {
			return false
		}
	}
	return true
}

// Premium is one country's autarky premium: the proportional cost of
// producing at home rather than sourcing from the cheapest foreign
// producer, and the capacity-constrained variant against the clearing
// price.
type Premium struct {
	ISO3 string `json:"iso3"`

	// VsCheapestForeign is c_j / min_{k != j} c_k - 1.
	VsCheapestForeign float64 `json:"vs_cheapest_foreign"`

	// VsClearingPrice is c_j / p* - 1; zero when no price was supplied.
	VsClearingPrice float64 `json:"vs_clearing_price"`
}

// AutarkyPremiums computes the premium for every ranked country,
// returned in ranking order. Needs at least two countries for the
// foreign comparison; with one, the premium is zero.
func AutarkyPremiums(costs []costmodel.UnitCost, clearingPrice float64) []Premium {
	premiums := make([]Premium, 0, len(costs))
	for _, u := range costs {
		p := Premium{ISO3: u.ISO3}
		if foreign, ok := cheapestForeign(costs, u.ISO3); ok && foreign > 0 {
			p.VsCheapestForeign = u.Total/foreign - 1
		}
		if clearingPrice > 0 {
			p.VsClearingPrice = u.Total/clearingPrice - 1
		}
		premiums = append(premiums, p)
	}
	return premiums
}

func cheapestForeign(costs []costmodel.UnitCost, iso string) (float64, bool) {
	// costs is sorted ascending, so the first entry that is not the
	// country itself is the cheapest foreign producer.
	for _, u := range costs {
		if u.ISO3 != iso {
			return u.Total, true
		}
	}
	return 0, false
}

// SovereigntyWelfareCost measures what the markup costs buyers: the
// demand-weighted increase in delivered cost per class when moving from
// the frictionless assignments to the policy assignments. Buyers
// unserved under either regime are skipped in both.
func SovereigntyWelfareCost(frictionless, policy map[string][2]sourcing.Assignment, weights map[string]float64) [2]float64 {
	var delta [2]float64
	for class := 0; class < 2; class++ {
		total, served := 0.0, 0.0
		for buyer, basePair := range frictionless {
			policyPair, ok := policy[buyer]
			if !ok {
				continue
			}
			if basePair[class].Unserved || policyPair[class].Unserved {
				continue
			}
			w := weights[buyer]
			total += w * (policyPair[class].DeliveredCost - basePair[class].DeliveredCost)
			served += w
		}
		if served > 0 {
			delta[class] = total / served
		}
	}
	return delta
}

// ExportShare is the demand-weighted share of buyers importing a class
// under a set of assignments.
func ExportShare(assignments map[string][2]sourcing.Assignment, weights map[string]float64, class sourcing.ServiceClass) float64 {
	imported, total := 0.0, 0.0
	for buyer, pair := range assignments {
		w := weights[buyer]
		total += w
		a := pair[class]
		if !a.Unserved && !a.IsDomestic() {
			imported += w
		}
	}
	if total <= 0 {
		return 0
	}
	return imported / total
}

// SortPremiums orders premiums descending by the foreign-comparison
// premium, ties broken by ISO3.
func SortPremiums(premiums []Premium) {
	sort.Slice(premiums, func(i, j int) bool {
		if premiums[i].VsCheapestForeign != premiums[j].VsCheapestForeign {
			return premiums[i].VsCheapestForeign > premiums[j].VsCheapestForeign
		}
		return premiums[i].ISO3 < premiums[j].ISO3
	})
}
