package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"comptrade/internal/config"
	"comptrade/internal/dataset"
	"comptrade/internal/exporter"
	"comptrade/internal/scenario"
	"comptrade/internal/sourcing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config (optional)")
	dataDir := flag.String("data", "", "reference data directory (overrides config)")
	outDir := flag.String("out", "", "report output directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.ReportDir = *outDir
	}

	logger := config.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	logger.Info("Loading reference datasets", "dir", cfg.Paths.DataDir)
	ref, err := dataset.NewLoader(cfg.Paths.DataDir, logger).Load(cfg.Demand.Sanctioned)
	if err != nil {
		logger.Error("Failed to load reference data", "error", err)
		os.Exit(1)
	}

	inputs := scenario.Inputs{
		Countries:   ref.Countries,
		Latency:     ref.Latency,
		Model:       cfg.Model.Params(),
		Trade:       cfg.Trade.Params(),
		DemandScale: cfg.Demand.ScaleGPUHours,
		BulkShare:   cfg.Demand.BulkShare,
	}
	runner, err := scenario.NewRunner(inputs, logger)
	if err != nil {
		logger.Error("Failed to build runner", "error", err)
		os.Exit(1)
	}

	// Baseline plus frictionless, the pair every headline table compares.
	zero := 0.0
	scenarios := []scenario.Scenario{
		{Name: "baseline"},
		{Name: "no sovereignty markup", SovereigntyMarkup: &zero},
	}
	runs, err := runner.Run(context.Background(), scenarios)
	if err != nil {
		logger.Error("Calibration failed", "error", err)
		os.Exit(1)
	}
	baseline, frictionless := runs[0], runs[1]

	if baseline.SolveErr != "" {
		logger.Warn("Baseline market solve is degenerate", "err", baseline.SolveErr)
	}

	reliability := make(map[string]float64, len(ref.Countries))
	weights := make(map[string]float64, len(ref.Countries))
	for _, c := range ref.Countries {
		reliability[c.ISO3] = c.Reliability
		weights[c.ISO3] = c.DemandWeight
	}

	premiums := scenario.AutarkyPremiums(baseline.Costs, baseline.Equilibrium.ClearingPrice)
	scenario.SortPremiums(premiums)

	welfare := scenario.SovereigntyWelfareCost(frictionless.Assignments, baseline.Assignments, weights)
	logger.Info("Sovereignty welfare cost",
		"bulk", welfare[0],
		"realtime", welfare[1],
		"bulk_export_share", scenario.ExportShare(baseline.Assignments, weights, sourcing.Bulk),
	)

	reports := []exporter.Report{
		exporter.CostReport(baseline.Costs, reliability),
		exporter.SourcingReport(baseline.Assignments, baseline.Regimes),
		exporter.EquilibriumReport(baseline.Equilibrium),
		exporter.PremiumReport(premiums),
		exporter.SensitivityReport(runs),
	}

	writer := exporter.NewCSVWriter(cfg.Paths.ReportDir, logger)
	for _, r := range reports {
		if err := writer.WriteReport(r); err != nil {
			logger.Error("Failed to write report", "report", r.Name, "error", err)
			os.Exit(1)
		}
	}
	workbook := filepath.Join(cfg.Paths.ReportDir, "calibration.xlsx")
	if err := exporter.WriteWorkbook(workbook, reports, logger); err != nil {
		logger.Error("Failed to write workbook", "error", err)
		os.Exit(1)
	}

	logger.Info("Calibration complete",
		"countries", len(ref.Countries),
		"clearing_price", baseline.Equilibrium.ClearingPrice,
		"concentration", baseline.Equilibrium.Concentration,
		"reports", cfg.Paths.ReportDir,
	)
}
