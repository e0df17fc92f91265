package exporter

import (
	"sort"
	"strconv"

	"comptrade/internal/costmodel"
	"comptrade/internal/market"
	"comptrade/internal/scenario"
	"comptrade/internal/sourcing"
)

// Report is one tabular report, shared between the CSV files and the
// workbook sheets.
type Report struct {
	Name    string // file base name and sheet name
	Headers []string
	Records [][]string
}

// WriteReport writes one report as <name>.csv.
func (w *CSVWriter) WriteReport(r Report) error {
	return w.WriteSimpleCSV(r.Name+".csv", r.Headers, r.Records)
}

// CostReport tabulates a ranked cost breakdown. reliability supplies
// the per-country index for the adjusted column and may be nil.
func CostReport(costs []costmodel.UnitCost, reliability map[string]float64) Report {
	records := make([][]string, 0, len(costs))
	for i, u := range costs {
		xi, ok := reliability[u.ISO3]
		if !ok {
			xi = 1.0
		}
		records = append(records, []string{
			strconv.Itoa(i + 1),
			u.ISO3,
			u.Name,
			formatCost(u.Total),
			formatCost(u.Energy),
			formatCost(u.Hardware),
			formatCost(u.Networking),
			formatCost(u.Construction),
			formatShare(u.PUE),
			formatCost(u.ReliabilityAdjusted(xi)),
		})
	}
	return Report{
		Name: "unit_costs",
		Headers: []string{"rank", "iso3", "country", "total_usd_gpu_hour",
			"energy", "hardware", "networking", "construction", "pue", "reliability_adjusted"},
		Records: records,
	}
}

// SourcingReport tabulates per-buyer sourcing decisions and regimes,
// ordered by buyer.
func SourcingReport(assignments map[string][2]sourcing.Assignment, regimes map[string]sourcing.Regime) Report {
	buyers := make([]string, 0, len(assignments))
	for buyer := range assignments {
		buyers = append(buyers, buyer)
	}
	sort.Strings(buyers)

	records := make([][]string, 0, len(buyers))
	for _, buyer := range buyers {
		pair := assignments[buyer]
		records = append(records, []string{
			buyer,
			assignmentSource(pair[0]),
			assignmentCost(pair[0]),
			assignmentSource(pair[1]),
			assignmentCost(pair[1]),
			regimes[buyer].String(),
		})
	}
	return Report{
		Name: "sourcing_regimes",
		Headers: []string{"buyer", "bulk_source", "bulk_delivered_cost",
			"realtime_source", "realtime_delivered_cost", "regime"},
		Records: records,
	}
}

func assignmentSource(a sourcing.Assignment) string {
	if a.Unserved {
		return "unserved"
	}
	return a.Source
}

func assignmentCost(a sourcing.Assignment) string {
	if a.Unserved {
		return ""
	}
	return formatCost(a.DeliveredCost)
}

// EquilibriumReport tabulates the cleared allocation with shadow values.
func EquilibriumReport(res market.Result) Report {
	records := make([][]string, 0, len(res.Allocations))
	for _, a := range res.Allocations {
		shadow := ""
		if mu, ok := res.ShadowValues[a.ID]; ok {
			shadow = formatCost(mu)
		}
		records = append(records, []string{
			a.ID,
			formatCost(a.UnitCost),
			formatQuantity(a.Available),
			formatQuantity(a.Allocated),
			formatShare(a.Share),
			formatBool(a.Binding()),
			shadow,
		})
	}
	return Report{
		Name: "equilibrium_allocations",
		Headers: []string{"seller", "unit_cost", "available", "allocated",
			"share", "binding", "shadow_value"},
		Records: records,
	}
}

// PremiumReport tabulates autarky premiums in the order given.
func PremiumReport(premiums []scenario.Premium) Report {
	records := make([][]string, 0, len(premiums))
	for _, p := range premiums {
		records = append(records, []string{
			p.ISO3,
			formatShare(p.VsCheapestForeign),
			formatShare(p.VsClearingPrice),
		})
	}
	return Report{
		Name:    "autarky_premiums",
		Headers: []string{"iso3", "vs_cheapest_foreign", "vs_clearing_price"},
		Records: records,
	}
}

// SensitivityReport tabulates one summary row per scenario run.
func SensitivityReport(runs []scenario.Run) Report {
	records := make([][]string, 0, len(runs))
	for _, run := range runs {
		cheapest := ""
		if len(run.Costs) > 0 {
			cheapest = run.Costs[0].ISO3
		}
		records = append(records, []string{
			run.Scenario.Name,
			cheapest,
			formatCost(run.Equilibrium.ClearingPrice),
			formatQuantity(run.Equilibrium.ExportDemand),
			run.Equilibrium.MarginalSeller,
			formatShare(run.Equilibrium.Concentration),
			formatBool(run.Equilibrium.Converged),
			strconv.Itoa(run.Equilibrium.Iterations),
			formatShare(run.RankCorrelation),
			formatBool(run.TopStable),
			formatShare(run.RevenueHHI[0]),
			formatShare(run.RevenueHHI[1]),
			formatCost(run.AvgDeliveredCost[0]),
			formatCost(run.AvgDeliveredCost[1]),
			run.SolveErr,
		})
	}
	return Report{
		Name: "sensitivity",
		Headers: []string{"scenario", "cheapest", "clearing_price", "export_demand",
			"marginal_seller", "concentration", "converged", "iterations",
			"rank_correlation", "top_stable", "revenue_hhi_bulk", "revenue_hhi_realtime",
			"avg_delivered_bulk", "avg_delivered_realtime", "solve_err"},
		Records: records,
	}
}
