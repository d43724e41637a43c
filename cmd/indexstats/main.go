package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"idxlens/internal/analytics"
	"idxlens/internal/config"
	"idxlens/internal/exporter"
	"idxlens/internal/infrastructure"
)

func main() {
	seriesA := flag.String("series-a", "", "first series name (required)")
	seriesB := flag.String("series-b", "", "second series name (required)")
	window := flag.Int("window", 0, "rolling window length (defaults to the configured value)")
	kind := flag.String("kind", "", "return kind: log | arithmetic (defaults to the configured value)")
	in := flag.String("in", "", "wide-layout index levels csv (defaults to data/reports/indexes.csv)")
	out := flag.String("out", "", "output csv (defaults to data/reports/rolling_correlation.csv)")
	long := flag.Bool("long", false, "also write the levels reshaped to long layout")
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
	if *in == "" {
		*in = paths.IndexCSV
	}
	if *out == "" {
		*out = paths.GetReportPath("rolling_correlation.csv")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	cfg.Logging.FilePath = paths.GetLogPath("indexstats.log")
	if *window == 0 {
		*window = cfg.Analytics.DefaultWindow
	}
	if *kind == "" {
		*kind = cfg.Analytics.ReturnKind
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *seriesA == "" || *seriesB == "" {
		logger.Error("Both -series-a and -series-b are required")
		flag.Usage()
		os.Exit(1)
	}

	frame, err := analytics.LoadFrame(*in)
	if err != nil {
		logger.Error("Failed to load index levels", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Computing rolling correlation",
		slog.String("series_a", *seriesA),
		slog.String("series_b", *seriesB),
		slog.Int("window", *window),
		slog.String("kind", *kind),
		slog.Int("rows", frame.Len()))

	points, err := analytics.RollingReturnCorrelation(frame, *seriesA, *seriesB, *window, analytics.ReturnKind(*kind))
	if err != nil {
		logger.Error("Correlation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(paths)
	headers, rows := analytics.CorrelationRecords(points)
	if err := writer.WriteSimpleCSV(*out, headers, rows); err != nil {
		logger.Error("Failed to write correlation csv", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *long {
		observations := analytics.WideToLong(frame)
		longHeaders, longRows := analytics.ObservationRecords(observations)
		longPath := paths.GetReportPath("index_levels_long.csv")
		if err := writer.WriteSimpleCSV(longPath, longHeaders, longRows); err != nil {
			logger.Error("Failed to write long-layout csv", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Long-layout export written",
			slog.Int("observations", len(observations)),
			slog.String("path", longPath))
	}

	logger.Info("Rolling correlation written",
		slog.Int("points", len(points)),
		slog.String("path", *out))
}
