package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"idxlens/internal/config"
	"idxlens/internal/constituents"
	"idxlens/internal/exporter"
	"idxlens/internal/infrastructure"
)

func main() {
	startStr := flag.String("start", "1996-01", "earliest month to rebuild (YYYY-MM)")
	endStr := flag.String("end", "", "latest month to rebuild (YYYY-MM); blank means the current month")
	snapshotPath := flag.String("snapshot", "", "constituents csv (defaults to data/reports/constituents.csv)")
	changesPath := flag.String("changes", "", "change log csv (defaults to data/reports/changes.csv)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		fmt.Printf("Error: failed to initialize paths: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create required directories: %v\n", err)
		os.Exit(1)
	}
	if *snapshotPath == "" {
		*snapshotPath = paths.ConstituentsCSV
	}
	if *changesPath == "" {
		*changesPath = paths.ChangesCSV
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	cfg.Logging.FilePath = paths.GetLogPath("reconstruct.log")

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	start, err := time.Parse("2006-01", *startStr)
	if err != nil {
		logger.Error("Invalid -start month", slog.String("value", *startStr))
		os.Exit(1)
	}
	opts := constituents.ReconstructOptions{Start: start}
	if *endStr != "" {
		end, err := time.Parse("2006-01", *endStr)
		if err != nil {
			logger.Error("Invalid -end month", slog.String("value", *endStr))
			os.Exit(1)
		}
		opts.End = end
	}

	snapshot, err := constituents.LoadSnapshot(*snapshotPath)
	if err != nil {
		logger.Error("Failed to load snapshot", slog.String("error", err.Error()))
		os.Exit(1)
	}
	changes, err := constituents.LoadChanges(*changesPath)
	if err != nil {
		logger.Error("Failed to load change log", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Rebuilding membership history",
		slog.Int("snapshot_rows", len(snapshot)),
		slog.Int("change_rows", len(changes)),
		slog.String("start", *startStr))

	records, err := constituents.Reconstruct(snapshot, changes, opts)
	if err != nil {
		logger.Error("Reconstruction failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(paths)
	headers, rows := constituents.MembershipRecords(records)
	if err := writer.WriteSimpleCSV(paths.MembershipsCSV, headers, rows); err != nil {
		logger.Error("Failed to write memberships csv", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := exporter.WriteMembershipWorkbook(paths.MembershipsXLSX, records); err != nil {
		logger.Error("Failed to write memberships workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Reconstruction complete",
		slog.Int("membership_rows", len(records)),
		slog.String("csv", paths.MembershipsCSV),
		slog.String("workbook", paths.MembershipsXLSX))
}
