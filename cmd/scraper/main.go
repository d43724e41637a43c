package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"idxlens/internal/config"
	"idxlens/internal/exporter"
	"idxlens/internal/infrastructure"
	"idxlens/internal/scrape"
)

func main() {
	sourceURL := flag.String("url", "", "constituents page URL (defaults to the configured source)")
	browser := flag.Bool("browser", false, "fetch with a headless browser instead of plain HTTP")
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

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	cfg.Logging.FilePath = paths.GetLogPath("scraper.log")
	if *sourceURL != "" {
		cfg.Scrape.SourceURL = *sourceURL
	}
	if *browser {
		cfg.Scrape.UseBrowser = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting scrape",
		slog.String("source_url", cfg.Scrape.SourceURL),
		slog.Bool("browser", cfg.Scrape.UseBrowser),
		slog.String("reports_dir", paths.ReportsDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scraper := scrape.New(cfg.Scrape, paths, logger)
	result, err := scraper.Run(ctx)
	if err != nil {
		logger.Error("Scrape failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(paths)
	if err := scraper.Persist(result, writer); err != nil {
		logger.Error("Failed to persist scrape result", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Scrape completed",
		slog.Int("constituents", len(result.Snapshot)),
		slog.Int("changes", len(result.Changes)),
		slog.String("constituents_csv", paths.ConstituentsCSV),
		slog.String("changes_csv", paths.ChangesCSV))
}
