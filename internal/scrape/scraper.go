package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"idxlens/internal/config"
	"idxlens/internal/constituents"
	"idxlens/internal/exporter"
	"idxlens/pkg/contracts/domain"
)

// Scraper fetches the reference page and persists the two extracted tables
// as CSV artifacts.
type Scraper struct {
	cfg     config.ScrapeConfig
	fetcher Fetcher
	paths   *config.Paths
	logger  *slog.Logger
}

// Result carries everything one scrape produced
type Result struct {
	Snapshot  []domain.Constituent
	Changes   []domain.ChangeRecord
	FetchedAt time.Time
}

// New creates a scraper with the fetcher implied by configuration
func New(cfg config.ScrapeConfig, paths *config.Paths, logger *slog.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		fetcher: NewFetcher(cfg),
		paths:   paths,
		logger:  logger.With(slog.String("component", "scraper")),
	}
}

// NewWithFetcher creates a scraper with an explicit fetcher (used in tests)
func NewWithFetcher(cfg config.ScrapeConfig, fetcher Fetcher, paths *config.Paths, logger *slog.Logger) *Scraper {
	return &Scraper{cfg: cfg, fetcher: fetcher, paths: paths, logger: logger}
}

// Run fetches the page, keeps a dated raw snapshot, and extracts both
// tables. The two tables are parsed concurrently from the same document
// bytes; any parse failure fails the whole run.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	fetchedAt := time.Now()

	s.logger.InfoContext(ctx, "Fetching constituents page",
		slog.String("url", s.cfg.SourceURL),
		slog.Bool("browser", s.cfg.UseBrowser))

	html, err := s.fetcher.Fetch(ctx, s.cfg.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}

	rawPath := s.paths.GetRawSnapshotPath(fetchedAt)
	if err := os.WriteFile(rawPath, html, 0644); err != nil {
		return nil, fmt.Errorf("scrape: failed to keep raw snapshot: %w", err)
	}

	result := &Result{FetchedAt: fetchedAt}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := ParseDocument(html)
		if err != nil {
			return err
		}
		result.Snapshot, err = ParseConstituents(doc)
		return err
	})
	g.Go(func() error {
		doc, err := ParseDocument(html)
		if err != nil {
			return err
		}
		result.Changes, err = ParseChanges(doc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}

	s.logger.InfoContext(ctx, "Scrape complete",
		slog.Int("constituents", len(result.Snapshot)),
		slog.Int("changes", len(result.Changes)),
		slog.String("raw_snapshot", rawPath))

	return result, nil
}

// Persist writes the scraped tables to their artifact files
func (s *Scraper) Persist(result *Result, writer *exporter.CSVWriter) error {
	snapHeaders, snapRecords := constituents.SnapshotRecords(result.Snapshot)
	if err := writer.WriteSimpleCSV(s.paths.ConstituentsCSV, snapHeaders, snapRecords); err != nil {
		return fmt.Errorf("scrape: failed to write constituents: %w", err)
	}

	chHeaders, chRecords := constituents.ChangeRecords(result.Changes)
	if err := writer.WriteSimpleCSV(s.paths.ChangesCSV, chHeaders, chRecords); err != nil {
		return fmt.Errorf("scrape: failed to write changes: %w", err)
	}

	return nil
}
