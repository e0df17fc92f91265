package costmodel

import "fmt"

// Country holds one country's calibration record, joined from the
// reference datasets before the model runs. Records are immutable within
// a single solve; sensitivity scenarios re-derive costs from the same
// records with different overrides.
type Country struct {
	ISO3 string `json:"iso3"`
	Name string `json:"name"`

	// Unit cost primitives
	ElectricityUSDPerKWh   float64 `json:"electricity_usd_kwh"`
	PeakTempC              float64 `json:"peak_temp_c"`
	ConstructionUSDPerWatt float64 `json:"construction_usd_w"`

	// Market-side attributes
	CapacityGPUHours float64 `json:"capacity_gpu_hours"` // per-period ceiling
	DemandWeight     float64 `json:"demand_weight"`      // share of global demand

	// Reliability index in (0, 1]; 1 means no adjustment
	Reliability float64 `json:"reliability"`

	Sanctioned bool `json:"sanctioned"`
}

// IsValid checks the fields the cost model depends on. Demand and
// capacity fields are validated by the market clearer separately.
func (c Country) IsValid() bool {
	return c.ISO3 != "" &&
		c.ElectricityUSDPerKWh > 0 &&
		c.ConstructionUSDPerWatt >= 0 &&
		c.Reliability > 0 && c.Reliability <= 1
}

// UnitCost is the computed unit production cost for one country,
// with the additive breakdown the report tables need.
type UnitCost struct {
	ISO3  string  `json:"iso3"`
	Name  string  `json:"name"`
	Total float64 `json:"total"` // $/GPU-hour

	Energy       float64 `json:"energy"`
	Hardware     float64 `json:"hardware"`
	Networking   float64 `json:"networking"`
	Construction float64 `json:"construction"`

	PUE float64 `json:"pue"` // cooling multiplier actually applied
}

// ReliabilityAdjusted returns the effective cost c/ξ used for the
// reliability-adjusted ranking. ξ outside (0,1] is treated as 1.
func (u UnitCost) ReliabilityAdjusted(xi float64) float64 {
	if xi <= 0 || xi > 1 {
		return u.Total
	}
	return u.Total / xi
}

// Params are the structural parameters shared by every country. They are
// an explicit immutable configuration object: scenario variation goes
// through Overrides, never through mutation.
type Params struct {
	// Cooling model: PUE = Base + Slope * max(0, theta - RefTempC)
	PUEBase     float64 `yaml:"pue_base" json:"pue_base"`
	PUESlope    float64 `yaml:"pue_slope" json:"pue_slope"` // per degC above reference
	PUERefTempC float64 `yaml:"pue_ref_temp_c" json:"pue_ref_temp_c"`

	// GPU hardware amortization
	GPUTDPkW       float64 `yaml:"gpu_tdp_kw" json:"gpu_tdp_kw"`
	GPUPriceUSD    float64 `yaml:"gpu_price_usd" json:"gpu_price_usd"`
	GPULifeYears   float64 `yaml:"gpu_life_years" json:"gpu_life_years"`
	GPUUtilization float64 `yaml:"gpu_utilization" json:"gpu_utilization"`

	// Period length
	HoursPerYear float64 `yaml:"hours_per_year" json:"hours_per_year"`

	// Amortized networking cost, global constant ($/GPU-hour)
	NetworkingUSDPerHour float64 `yaml:"networking_usd_per_hour" json:"networking_usd_per_hour"`

	// Data center construction amortization horizon
	DCLifeYears float64 `yaml:"dc_life_years" json:"dc_life_years"`
}

// DefaultParams returns the baseline calibration.
func DefaultParams() Params {
	return Params{
		PUEBase:              1.08,
		PUESlope:             0.015,
		PUERefTempC:          15.0,
		GPUTDPkW:             0.700,
		GPUPriceUSD:          25_000,
		GPULifeYears:         3,
		GPUUtilization:       0.70,
		HoursPerYear:         365.25 * 24,
		NetworkingUSDPerHour: 0.15,
		DCLifeYears:          15,
	}
}

// Validate checks that every denominator is strictly positive and every
// rate is in range. A zero or negative amortization denominator is an
// invalid-input error per the failure contract.
func (p Params) Validate() error {
	switch {
	case p.PUEBase < 1:
		return &ValidationError{Field: "pue_base", Message: fmt.Sprintf("must be >= 1, got %.3f", p.PUEBase)}
	case p.PUESlope < 0:
		return &ValidationError{Field: "pue_slope", Message: fmt.Sprintf("must be >= 0, got %.4f", p.PUESlope)}
	case p.GPUTDPkW <= 0:
		return &ValidationError{Field: "gpu_tdp_kw", Message: fmt.Sprintf("must be > 0, got %.3f", p.GPUTDPkW)}
	case p.GPUPriceUSD <= 0:
		return &ValidationError{Field: "gpu_price_usd", Message: fmt.Sprintf("must be > 0, got %.2f", p.GPUPriceUSD)}
	case p.GPULifeYears <= 0:
		return &ValidationError{Field: "gpu_life_years", Message: fmt.Sprintf("must be > 0, got %.2f", p.GPULifeYears)}
	case p.GPUUtilization <= 0 || p.GPUUtilization > 1:
		return &ValidationError{Field: "gpu_utilization", Message: fmt.Sprintf("must be in (0, 1], got %.3f", p.GPUUtilization)}
	case p.HoursPerYear <= 0:
		return &ValidationError{Field: "hours_per_year", Message: fmt.Sprintf("must be > 0, got %.1f", p.HoursPerYear)}
	case p.NetworkingUSDPerHour < 0:
		return &ValidationError{Field: "networking_usd_per_hour", Message: fmt.Sprintf("must be >= 0, got %.3f", p.NetworkingUSDPerHour)}
	case p.DCLifeYears <= 0:
		return &ValidationError{Field: "dc_life_years", Message: fmt.Sprintf("must be > 0, got %.2f", p.DCLifeYears)}
	}
	return nil
}

// HardwareCost is the amortized hardware term: identical for every
// country, and the single largest cost component.
func (p Params) HardwareCost() float64 {
	return p.GPUPriceUSD / (p.GPULifeYears * p.HoursPerYear * p.GPUUtilization)
}

// Overrides enumerates the named scenario adjustments. The zero value is
// the baseline. Overrides are parameter substitutions, not special code
// paths: the cost formula never branches on them.
type Overrides struct {
	// ElectricityDeltaUSD shifts every country's electricity price ($/kWh).
	ElectricityDeltaUSD float64 `yaml:"electricity_delta_usd" json:"electricity_delta_usd"`

	// GPUPriceUSD replaces Params.GPUPriceUSD when > 0.
	GPUPriceUSD float64 `yaml:"gpu_price_usd" json:"gpu_price_usd"`

	// GPUUtilization replaces Params.GPUUtilization when > 0.
	GPUUtilization float64 `yaml:"gpu_utilization" json:"gpu_utilization"`

	// PUECap caps the cooling multiplier when > 0 (efficiency scenario).
	PUECap float64 `yaml:"pue_cap" json:"pue_cap"`

	// CostRecoveryPrices substitutes cost-reflective electricity prices
	// for flagged countries (subsidy correction), keyed by ISO3.
	CostRecoveryPrices map[string]float64 `yaml:"cost_recovery_prices" json:"cost_recovery_prices"`
}

// ValidationError reports a rejected input record or parameter. The
// offending record is rejected outright rather than defaulted.
type ValidationError struct {
	ISO3    string `json:"iso3,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ISO3 != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.ISO3, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
