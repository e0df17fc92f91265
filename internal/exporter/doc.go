// Package exporter renders calibration results as report files.
//
// Two output forms share the same Report tables: per-report CSV files
// (UTF-8 BOM for Excel compatibility) and a single Excel workbook with
// one sheet per report. The reports are the hand-off artifact to
// document assembly; nothing here feeds back into the solver.
package exporter
