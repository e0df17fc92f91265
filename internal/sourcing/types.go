package sourcing

import "fmt"

// ServiceClass distinguishes the two traded service classes.
type ServiceClass int

const (
	// Bulk is the latency-insensitive class (model training): sourced
	// from the globally cheapest feasible seller, latency ignored.
	Bulk ServiceClass = iota
	// RealTime is the latency-sensitive class (inference): delivered
	// cost grows with latency and becomes infeasible beyond the ceiling.
	RealTime
)

// String returns the string representation of the service class.
func (c ServiceClass) String() string {
	switch c {
	case Bulk:
		return "bulk"
	case RealTime:
		return "real-time"
	default:
		return "unknown"
	}
}

// Params govern delivered-cost computation.
type Params struct {
	// LatencyRate is the iceberg degradation rate per millisecond (tau),
	// applied to the RealTime class only.
	LatencyRate float64 `yaml:"latency_rate" json:"latency_rate"`

	// LatencyCeilingMS is the hard feasibility ceiling for RealTime.
	LatencyCeilingMS float64 `yaml:"latency_ceiling_ms" json:"latency_ceiling_ms"`

	// SovereigntyMarkup is the proportional penalty on foreign sourcing
	// (lambda); zero means no domestic preference.
	SovereigntyMarkup float64 `yaml:"sovereignty_markup" json:"sovereignty_markup"`
}

// DefaultParams returns the baseline trade-cost calibration.
func DefaultParams() Params {
	return Params{
		LatencyRate:       0.0008,
		LatencyCeilingMS:  300,
		SovereigntyMarkup: 0.10,
	}
}

// Validate checks the trade-cost parameters.
func (p Params) Validate() error {
	switch {
	case p.LatencyRate < 0:
		return fmt.Errorf("latency_rate must be >= 0, got %.5f", p.LatencyRate)
	case p.LatencyCeilingMS <= 0:
		return fmt.Errorf("latency_ceiling_ms must be > 0, got %.1f", p.LatencyCeilingMS)
	case p.SovereigntyMarkup < 0:
		return fmt.Errorf("sovereignty_markup must be >= 0, got %.3f", p.SovereigntyMarkup)
	}
	return nil
}

// Seller is one candidate supplier with its unit cost.
type Seller struct {
	ID         string  `json:"id"`
	UnitCost   float64 `json:"unit_cost"`
	Sanctioned bool    `json:"sanctioned"`
}

// Assignment records the sourcing decision for one buyer and class.
// Unserved means no admissible seller existed; it is an explicit
// outcome, never coerced into a cost value.
type Assignment struct {
	Buyer         string       `json:"buyer"`
	Class         ServiceClass `json:"class"`
	Source        string       `json:"source,omitempty"`
	DeliveredCost float64      `json:"delivered_cost,omitempty"`
	Unserved      bool         `json:"unserved,omitempty"`
}

// IsDomestic reports whether the buyer sources from itself.
func (a Assignment) IsDomestic() bool {
	return !a.Unserved && a.Source == a.Buyer
}

// Regime classifies a buyer by its sourcing decisions across both
// service classes.
type Regime int

const (
	FullDomestic Regime = iota
	FullImport
	ImportBulkBuildRealTime
	BuildBulkImportRealTime
	UnservedRegime
)

// String returns the report label for the regime.
func (r Regime) String() string {
	switch r {
	case FullDomestic:
		return "full domestic"
	case FullImport:
		return "full import"
	case ImportBulkBuildRealTime:
		return "import bulk + build real-time"
	case BuildBulkImportRealTime:
		return "build bulk + import real-time"
	case UnservedRegime:
		return "unserved"
	default:
		return "unknown"
	}
}

// ClassifyRegime derives the regime from the two class assignments.
func ClassifyRegime(bulk, realTime Assignment) Regime {
	if bulk.Unserved || realTime.Unserved {
		return UnservedRegime
	}
	domBulk := bulk.IsDomestic()
	domRT := realTime.IsDomestic()
	switch {
	case domBulk && domRT:
		return FullDomestic
	case !domBulk && !domRT:
		return FullImport
	case !domBulk && domRT:
		return ImportBulkBuildRealTime
	default:
		return BuildBulkImportRealTime
	}
}
