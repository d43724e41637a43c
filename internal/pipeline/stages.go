package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"idxlens/internal/analytics"
	"idxlens/internal/config"
	"idxlens/internal/constituents"
	"idxlens/internal/exporter"
	"idxlens/internal/scrape"
)

// State keys used to hand data between stages.
const (
	keyScrapeResult = "scrape.result"
)

// ScrapeStage fetches the reference page and persists the snapshot and
// change-log artifacts.
type ScrapeStage struct {
	scraper *scrape.Scraper
	writer  *exporter.CSVWriter
}

// NewScrapeStage creates the scrape stage
func NewScrapeStage(scraper *scrape.Scraper, writer *exporter.CSVWriter) *ScrapeStage {
	return &ScrapeStage{scraper: scraper, writer: writer}
}

func (s *ScrapeStage) ID() string   { return "scrape" }
func (s *ScrapeStage) Name() string { return "Scrape constituents page" }

func (s *ScrapeStage) Validate(*RunState) error { return nil }

func (s *ScrapeStage) Execute(ctx context.Context, state *RunState) error {
	result, err := s.scraper.Run(ctx)
	if err != nil {
		return err
	}
	if err := s.scraper.Persist(result, s.writer); err != nil {
		return err
	}

	state.Set(keyScrapeResult, result)
	return nil
}

// ReconstructStage rebuilds the monthly membership table from the scraped
// artifacts and persists it as CSV and as an Excel workbook.
type ReconstructStage struct {
	paths  *config.Paths
	writer *exporter.CSVWriter
	start  time.Time
	logger *slog.Logger
}

// NewReconstructStage creates the reconstruction stage. start bounds how
// far back the rebuild walks.
func NewReconstructStage(paths *config.Paths, writer *exporter.CSVWriter, start time.Time, logger *slog.Logger) *ReconstructStage {
	return &ReconstructStage{paths: paths, writer: writer, start: start, logger: logger}
}

func (s *ReconstructStage) ID() string   { return "reconstruct" }
func (s *ReconstructStage) Name() string { return "Reconstruct historical membership" }

func (s *ReconstructStage) Validate(state *RunState) error {
	if _, ok := state.Get(keyScrapeResult); ok {
		return nil
	}
	// Without an in-run scrape, the artifacts must already exist.
	if !config.FileExists(s.paths.ConstituentsCSV) {
		return fmt.Errorf("constituents artifact %s not found", s.paths.ConstituentsCSV)
	}
	if !config.FileExists(s.paths.ChangesCSV) {
		return fmt.Errorf("changes artifact %s not found", s.paths.ChangesCSV)
	}
	return nil
}

func (s *ReconstructStage) Execute(ctx context.Context, state *RunState) error {
	snapshot, err := constituents.LoadSnapshot(s.paths.ConstituentsCSV)
	if err != nil {
		return err
	}
	changes, err := constituents.LoadChanges(s.paths.ChangesCSV)
	if err != nil {
		return err
	}

	memberships, err := constituents.Reconstruct(snapshot, changes, constituents.ReconstructOptions{
		Start: s.start,
	})
	if err != nil {
		return err
	}

	headers, records := constituents.MembershipRecords(memberships)
	if err := s.writer.WriteSimpleCSV(s.paths.MembershipsCSV, headers, records); err != nil {
		return err
	}
	if err := exporter.WriteMembershipWorkbook(s.paths.MembershipsXLSX, memberships); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Membership table rebuilt",
		slog.Int("records", len(memberships)),
		slog.String("csv", s.paths.MembershipsCSV),
		slog.String("xlsx", s.paths.MembershipsXLSX))

	return nil
}

// AnalyzeStage computes the rolling return correlation between the two
// configured index series and persists the result. The stage is a no-op
// when no index series artifact exists, since index levels come from a
// separate feed.
type AnalyzeStage struct {
	paths   *config.Paths
	writer  *exporter.CSVWriter
	cfg     config.AnalyticsConfig
	seriesA string
	seriesB string
	logger  *slog.Logger
}

// NewAnalyzeStage creates the analytics stage
func NewAnalyzeStage(paths *config.Paths, writer *exporter.CSVWriter, cfg config.AnalyticsConfig, seriesA, seriesB string, logger *slog.Logger) *AnalyzeStage {
	return &AnalyzeStage{
		paths: paths, writer: writer, cfg: cfg,
		seriesA: seriesA, seriesB: seriesB, logger: logger,
	}
}

func (s *AnalyzeStage) ID() string   { return "analyze" }
func (s *AnalyzeStage) Name() string { return "Rolling index analytics" }

func (s *AnalyzeStage) Validate(*RunState) error { return nil }

func (s *AnalyzeStage) Execute(ctx context.Context, state *RunState) error {
	if !config.FileExists(s.paths.IndexCSV) {
		s.logger.InfoContext(ctx, "No index series artifact, skipping analytics",
			slog.String("path", s.paths.IndexCSV))
		return nil
	}

	frame, err := analytics.LoadFrame(s.paths.IndexCSV)
	if err != nil {
		return err
	}

	points, err := analytics.RollingReturnCorrelation(frame, s.seriesA, s.seriesB,
		s.cfg.DefaultWindow, analytics.ReturnKind(s.cfg.ReturnKind))
	if err != nil {
		return err
	}

	headers, records := analytics.CorrelationRecords(points)
	outPath := s.paths.GetReportPath("rolling_correlation.csv")
	if err := s.writer.WriteSimpleCSV(outPath, headers, records); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Rolling correlation written",
		slog.String("path", outPath),
		slog.Int("points", len(points)),
		slog.Int("window", s.cfg.DefaultWindow))

	return nil
}
