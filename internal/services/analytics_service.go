package services

import (
	"context"
	"fmt"
	"log/slog"

	"idxlens/internal/analytics"
	"idxlens/internal/config"
	apierrors "idxlens/internal/errors"
	"idxlens/pkg/contracts/domain"
)

// AnalyticsService computes rolling statistics over the index level series
type AnalyticsService struct {
	cfg    config.AnalyticsConfig
	paths  *config.Paths
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(cfg config.AnalyticsConfig, paths *config.Paths, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalyticsService{
		cfg:    cfg,
		paths:  paths,
		logger: logger,
	}
}

// RollingCorrelationRequest carries the parameters for a correlation query
type RollingCorrelationRequest struct {
	SeriesA string `json:"series_a" validate:"required"`
	SeriesB string `json:"series_b" validate:"required"`
	Window  int    `json:"window" validate:"omitempty,min=2"`
}

// RollingCorrelation computes the rolling return correlation between two
// series from the index levels file. A zero window falls back to the
// configured default.
func (as *AnalyticsService) RollingCorrelation(ctx context.Context, req RollingCorrelationRequest) ([]domain.CorrelationPoint, error) {
	if !config.FileExists(as.paths.IndexCSV) {
		return nil, apierrors.ErrDataNotFound
	}

	window := req.Window
	if window == 0 {
		window = as.cfg.DefaultWindow
	}
	if window < 2 {
		return nil, apierrors.ErrValidation("window", "must be at least 2")
	}

	frame, err := analytics.LoadFrame(as.paths.IndexCSV)
	if err != nil {
		as.logger.ErrorContext(ctx, "failed to load index levels",
			slog.String("path", as.paths.IndexCSV),
			slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("load index levels", err)
	}

	points, err := analytics.RollingReturnCorrelation(frame, req.SeriesA, req.SeriesB, window, analytics.ReturnKind(as.cfg.ReturnKind))
	if err != nil {
		return nil, apierrors.ErrValidation("series", err.Error())
	}

	as.logger.InfoContext(ctx, "rolling correlation computed",
		slog.String("series_a", req.SeriesA),
		slog.String("series_b", req.SeriesB),
		slog.Int("window", window),
		slog.Int("points", len(points)))

	return points, nil
}

// SeriesNames lists the series available in the index levels file
func (as *AnalyticsService) SeriesNames(ctx context.Context) ([]string, error) {
	if !config.FileExists(as.paths.IndexCSV) {
		return nil, apierrors.ErrDataNotFound
	}

	frame, err := analytics.LoadFrame(as.paths.IndexCSV)
	if err != nil {
		return nil, apierrors.NewParsingError("load index levels", err)
	}

	names := frame.SeriesNames()
	if len(names) == 0 {
		return nil, apierrors.NotFoundError(fmt.Sprintf("series in %s", as.paths.IndexCSV))
	}

	return names, nil
}
