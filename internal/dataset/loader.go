package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"comptrade/internal/costmodel"
	"comptrade/internal/sourcing"
)

// Standard file names inside the data directory.
const (
	ElectricityFile  = "country_electricity_prices.csv"
	TemperatureFile  = "country_temperatures.csv"
	ConstructionFile = "predicted_construction_costs.csv"
	LatencyFile      = "country_pair_latency.csv"
	DemandFile       = "dc_capacity_estimates.csv"
	GridCapacityFile = "grid_capacity_estimates.csv"
	ReliabilityFile  = "reliability_index.csv"
	CostRecoveryFile = "cost_recovery_prices.csv"
)

// Loader reads and joins the reference datasets into calibration records.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader rooted at the given data directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

// Reference is the fully joined input for one calibration run.
type Reference struct {
	Countries []costmodel.Country
	Latency   *sourcing.LatencyTable
}

// Load reads every reference dataset and joins them over the
// intersection of countries that have electricity, temperature, and
// construction data. Reliability defaults to 1 and demand capacity to
// the 5 MW floor when missing; sanctioned IDs come from configuration.
func (l *Loader) Load(sanctioned []string) (*Reference, error) {
	electricity, err := l.LoadElectricity()
	if err != nil {
		return nil, fmt.Errorf("load electricity prices: %w", err)
	}
	temperature, names, err := l.LoadTemperatures()
	if err != nil {
		return nil, fmt.Errorf("load temperatures: %w", err)
	}
	construction, err := l.LoadConstructionCosts()
	if err != nil {
		return nil, fmt.Errorf("load construction costs: %w", err)
	}
	latency, err := l.LoadLatency()
	if err != nil {
		return nil, fmt.Errorf("load latency: %w", err)
	}
	demandMW, err := l.LoadDemandCapacity()
	if err != nil {
		return nil, fmt.Errorf("load demand capacity: %w", err)
	}
	gridCapacity, err := l.LoadGridCapacity()
	if err != nil {
		return nil, fmt.Errorf("load grid capacity: %w", err)
	}
	reliability, err := l.LoadReliability()
	if err != nil {
		return nil, fmt.Errorf("load reliability index: %w", err)
	}

	sanctionedSet := make(map[string]bool, len(sanctioned))
	for _, iso := range sanctioned {
		sanctionedSet[iso] = true
	}

	// Calibration set: intersection of the three cost datasets.
	var isos []string
	for iso := range electricity {
		if _, ok := temperature[iso]; !ok {
			continue
		}
		if _, ok := construction[iso]; !ok {
			continue
		}
		isos = append(isos, iso)
	}
	sort.Strings(isos)
	if len(isos) == 0 {
		return nil, fmt.Errorf("no countries present in all of electricity, temperature, and construction datasets")
	}

	// Demand weights from data-center capacity, floored for missing
	// countries and normalized over the calibration set.
	totalMW := 0.0
	mw := make(map[string]float64, len(isos))
	for _, iso := range isos {
		v, ok := demandMW[iso]
		if !ok || v <= 0 {
			v = DefaultDemandFloorMW
		}
		mw[iso] = v
		totalMW += v
	}

	countries := make([]costmodel.Country, 0, len(isos))
	for _, iso := range isos {
		capacity, ok := gridCapacity[iso]
		if !ok {
			capacity = UnboundedCapacity
		}
		xi, ok := reliability[iso]
		if !ok {
			xi = 1.0
		}
		countries = append(countries, costmodel.Country{
			ISO3:                   iso,
			Name:                   names[iso],
			ElectricityUSDPerKWh:   electricity[iso],
			PeakTempC:              temperature[iso],
			ConstructionUSDPerWatt: construction[iso].USDPerWatt,
			CapacityGPUHours:       capacity,
			DemandWeight:           mw[iso] / totalMW,
			Reliability:            xi,
			Sanctioned:             sanctionedSet[iso],
		})
	}

	l.logger.Info("joined reference datasets",
		"calibration_countries", len(countries),
		"electricity", len(electricity),
		"temperature", len(temperature),
		"construction", len(construction),
		"latency_pairs", latency.Len(),
	)
	return &Reference{Countries: countries, Latency: latency}, nil
}

// LoadElectricity reads industrial electricity prices keyed by ISO3.
func (l *Loader) LoadElectricity() (map[string]float64, error) {
	rows, idx, err := l.readCSV(ElectricityFile, "iso3", "price_usd_kwh")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, rec := range rows {
		price, err := parseFloat(rec[idx["price_usd_kwh"]])
		if err != nil {
			return nil, rowErr(ElectricityFile, i, err)
		}
		row := electricityRow{ISO3: rec[idx["iso3"]], PriceUSDPerKWh: price}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(ElectricityFile, i, err)
		}
		out[row.ISO3] = row.PriceUSDPerKWh
	}
	return out, nil
}

// LoadTemperatures reads peak summer temperatures and country names.
func (l *Loader) LoadTemperatures() (map[string]float64, map[string]string, error) {
	rows, idx, err := l.readCSV(TemperatureFile, "iso3", "country", "temp_summer_peak_C")
	if err != nil {
		return nil, nil, err
	}
	temps := make(map[string]float64, len(rows))
	names := make(map[string]string, len(rows))
	for i, rec := range rows {
		temp, err := parseFloat(rec[idx["temp_summer_peak_C"]])
		if err != nil {
			return nil, nil, rowErr(TemperatureFile, i, err)
		}
		row := temperatureRow{ISO3: rec[idx["iso3"]], Country: rec[idx["country"]], PeakTempC: temp}
		if err := validate.Struct(row); err != nil {
			return nil, nil, rowErr(TemperatureFile, i, err)
		}
		temps[row.ISO3] = row.PeakTempC
		names[row.ISO3] = row.Country
	}
	return temps, names, nil
}

// LoadConstructionCosts reads construction prices per watt, preferring
// the surveyed value over the regression-imputed one.
func (l *Loader) LoadConstructionCosts() (map[string]ConstructionCost, error) {
	rows, idx, err := l.readCSV(ConstructionFile, "iso3", "actual_usd_per_watt", "predicted_usd_per_watt")
	if err != nil {
		return nil, err
	}
	out := make(map[string]ConstructionCost, len(rows))
	for i, rec := range rows {
		row := constructionRow{ISO3: rec[idx["iso3"]]}
		if v := strings.TrimSpace(rec[idx["actual_usd_per_watt"]]); v != "" {
			f, err := parseFloat(v)
			if err != nil {
				return nil, rowErr(ConstructionFile, i, err)
			}
			row.ActualUSDPerWatt = &f
		}
		if v := strings.TrimSpace(rec[idx["predicted_usd_per_watt"]]); v != "" {
			f, err := parseFloat(v)
			if err != nil {
				return nil, rowErr(ConstructionFile, i, err)
			}
			row.PredictedUSDPerWatt = &f
		}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(ConstructionFile, i, err)
		}
		switch {
		case row.ActualUSDPerWatt != nil:
			out[row.ISO3] = ConstructionCost{USDPerWatt: *row.ActualUSDPerWatt}
		case row.PredictedUSDPerWatt != nil:
			out[row.ISO3] = ConstructionCost{USDPerWatt: *row.PredictedUSDPerWatt, Imputed: true}
		}
		// Rows with neither value are simply absent from the join.
	}
	return out, nil
}

// LoadLatency reads the bilateral latency table.
func (l *Loader) LoadLatency() (*sourcing.LatencyTable, error) {
	rows, idx, err := l.readCSV(LatencyFile, "iso3_from", "iso3_to", "avg_ms")
	if err != nil {
		return nil, err
	}
	table := sourcing.NewLatencyTable()
	for i, rec := range rows {
		ms, err := parseFloat(rec[idx["avg_ms"]])
		if err != nil {
			return nil, rowErr(LatencyFile, i, err)
		}
		row := latencyRow{FromISO3: rec[idx["iso3_from"]], ToISO3: rec[idx["iso3_to"]], AvgMS: ms}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(LatencyFile, i, err)
		}
		table.Set(row.FromISO3, row.ToISO3, row.AvgMS)
	}
	return table, nil
}

// LoadDemandCapacity reads installed data-center capacity (MW), the
// demand proxy.
func (l *Loader) LoadDemandCapacity() (map[string]float64, error) {
	rows, idx, err := l.readCSV(DemandFile, "iso3", "capacity_mw")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, rec := range rows {
		mw, err := parseFloat(rec[idx["capacity_mw"]])
		if err != nil {
			return nil, rowErr(DemandFile, i, err)
		}
		row := demandCapacityRow{ISO3: rec[idx["iso3"]], CapacityMW: mw}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(DemandFile, i, err)
		}
		out[row.ISO3] = row.CapacityMW
	}
	return out, nil
}

// LoadGridCapacity reads per-country capacity ceilings in GPU-hours,
// applying the unit correction.
func (l *Loader) LoadGridCapacity() (map[string]float64, error) {
	rows, idx, err := l.readCSV(GridCapacityFile, "iso3", "K_bar_gpu_hours")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, rec := range rows {
		hours, err := parseFloat(rec[idx["K_bar_gpu_hours"]])
		if err != nil {
			return nil, rowErr(GridCapacityFile, i, err)
		}
		row := gridCapacityRow{ISO3: rec[idx["iso3"]], GPUHours: hours}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(GridCapacityFile, i, err)
		}
		out[row.ISO3] = row.GPUHours * GridCapacityScale
	}
	return out, nil
}

// LoadReliability reads the reliability index xi in (0, 1].
func (l *Loader) LoadReliability() (map[string]float64, error) {
	rows, idx, err := l.readCSV(ReliabilityFile, "iso3", "xi_reliability")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, rec := range rows {
		xi, err := parseFloat(rec[idx["xi_reliability"]])
		if err != nil {
			return nil, rowErr(ReliabilityFile, i, err)
		}
		row := reliabilityRow{ISO3: rec[idx["iso3"]], Xi: xi}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(ReliabilityFile, i, err)
		}
		out[row.ISO3] = row.Xi
	}
	return out, nil
}

// LoadCostRecovery reads cost-reflective electricity prices for
// subsidizing countries. The file is optional; a missing file yields an
// empty map so the cost-recovery scenario is simply skipped.
func (l *Loader) LoadCostRecovery() (map[string]float64, error) {
	if _, err := os.Stat(filepath.Join(l.dir, CostRecoveryFile)); os.IsNotExist(err) {
		return nil, nil
	}
	rows, idx, err := l.readCSV(CostRecoveryFile, "iso3", "price_usd_kwh")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for i, rec := range rows {
		price, err := parseFloat(rec[idx["price_usd_kwh"]])
		if err != nil {
			return nil, rowErr(CostRecoveryFile, i, err)
		}
		row := electricityRow{ISO3: rec[idx["iso3"]], PriceUSDPerKWh: price}
		if err := validate.Struct(row); err != nil {
			return nil, rowErr(CostRecoveryFile, i, err)
		}
		out[row.ISO3] = row.PriceUSDPerKWh
	}
	return out, nil
}

// readCSV opens a file in the data directory, maps the required column
// names to indices, and returns the data rows.
func (l *Loader) readCSV(name string, required ...string) ([][]string, map[string]int, error) {
	path := filepath.Join(l.dir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%s: missing required column %q", name, col)
		}
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, rec)
	}
	return rows, idx, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func rowErr(file string, row int, err error) error {
	// +2 accounts for the header line and 1-based numbering.
	return fmt.Errorf("%s row %d: %w", file, row+2, err)
}
