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

	loader := dataset.NewLoader(cfg.Paths.DataDir, logger)
	ref, err := loader.Load(cfg.Demand.Sanctioned)
	if err != nil {
		logger.Error("Failed to load reference data", "error", err)
		os.Exit(1)
	}

	costRecovery := cfg.Demand.CostRecoveryPrices
	if len(costRecovery) == 0 {
		if costRecovery, err = loader.LoadCostRecovery(); err != nil {
			logger.Error("Failed to load cost-recovery prices", "error", err)
			os.Exit(1)
		}
	}

	runner, err := scenario.NewRunner(scenario.Inputs{
		Countries:   ref.Countries,
		Latency:     ref.Latency,
		Model:       cfg.Model.Params(),
		Trade:       cfg.Trade.Params(),
		DemandScale: cfg.Demand.ScaleGPUHours,
		BulkShare:   cfg.Demand.BulkShare,
	}, logger)
	if err != nil {
		logger.Error("Failed to build runner", "error", err)
		os.Exit(1)
	}

	battery := scenario.Builtin(costRecovery)
	logger.Info("Running sensitivity battery", "scenarios", len(battery))

	runs, err := runner.Run(context.Background(), battery)
	if err != nil {
		logger.Error("Sensitivity batch failed", "error", err)
		os.Exit(1)
	}
	for _, run := range runs {
		if run.SolveErr != "" {
			logger.Warn("Degenerate solve", "scenario", run.Scenario.Name, "err", run.SolveErr)
		}
	}

	report := exporter.SensitivityReport(runs)
	writer := exporter.NewCSVWriter(cfg.Paths.ReportDir, logger)
	if err := writer.WriteReport(report); err != nil {
		logger.Error("Failed to write sensitivity report", "error", err)
		os.Exit(1)
	}
	workbook := filepath.Join(cfg.Paths.ReportDir, "sensitivity.xlsx")
	if err := exporter.WriteWorkbook(workbook, []exporter.Report{report}, logger); err != nil {
		logger.Error("Failed to write workbook", "error", err)
		os.Exit(1)
	}

	logger.Info("Sensitivity batch complete",
		"scenarios", len(runs),
		"baseline_price", runs[0].Equilibrium.ClearingPrice,
		"reports", cfg.Paths.ReportDir,
	)
}
