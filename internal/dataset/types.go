package dataset

import "github.com/go-playground/validator/v10"

// Row types mirror the reference CSV schemas. Each row is validated on
// read; an invalid row rejects the load rather than being defaulted.

type electricityRow struct {
	ISO3           string  `validate:"required,len=3,uppercase"`
	PriceUSDPerKWh float64 `validate:"gt=0"`
	Source         string
}

type temperatureRow struct {
	ISO3      string `validate:"required,len=3,uppercase"`
	Country   string `validate:"required"`
	PeakTempC float64
}

type constructionRow struct {
	ISO3 string `validate:"required,len=3,uppercase"`
	// Exactly one of the two is used: the surveyed value when present,
	// otherwise the regression-imputed one.
	ActualUSDPerWatt    *float64 `validate:"omitempty,gt=0"`
	PredictedUSDPerWatt *float64 `validate:"omitempty,gt=0"`
}

type latencyRow struct {
	FromISO3 string  `validate:"required,len=3,uppercase"`
	ToISO3   string  `validate:"required,len=3,uppercase"`
	AvgMS    float64 `validate:"gte=0"`
}

type demandCapacityRow struct {
	ISO3       string  `validate:"required,len=3,uppercase"`
	CapacityMW float64 `validate:"gte=0"`
}

type gridCapacityRow struct {
	ISO3     string  `validate:"required,len=3,uppercase"`
	GPUHours float64 `validate:"gte=0"`
}

type reliabilityRow struct {
	ISO3 string  `validate:"required,len=3,uppercase"`
	Xi   float64 `validate:"gt=0,lte=1"`
}

var validate = validator.New()

// ConstructionCost is a per-country price per watt together with its
// provenance (surveyed vs regression-imputed).
type ConstructionCost struct {
	USDPerWatt float64
	Imputed    bool
}

const (
	// DefaultDemandFloorMW is assigned to calibration countries with no
	// data-center capacity estimate, so every country carries a
	// non-zero demand weight.
	DefaultDemandFloorMW = 5.0

	// GridCapacityScale corrects the grid capacity CSV's unit error
	// (values were exported three orders of magnitude low).
	GridCapacityScale = 1000.0

	// UnboundedCapacity stands in for sellers without a grid capacity
	// estimate; effectively no ceiling.
	UnboundedCapacity = 1e12
)
