package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"idxlens/internal/config"
	apierrors "idxlens/internal/errors"
	"idxlens/internal/exporter"
	"idxlens/internal/infrastructure"
	"idxlens/internal/pipeline"
	"idxlens/internal/scrape"
)

// OperationRequest selects which stages a run executes and their
// parameters. All fields are optional.
type OperationRequest struct {
	SkipScrape bool      `json:"skip_scrape"`
	Start      time.Time `json:"start,omitempty"`
	SeriesA    string    `json:"series_a,omitempty"`
	SeriesB    string    `json:"series_b,omitempty"`
	Window     int       `json:"window,omitempty" validate:"omitempty,min=2"`
}

// OperationsService launches pipeline runs and tracks their state. Only
// one run may be active at a time.
type OperationsService struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	hub     pipeline.Listener
	metrics *infrastructure.PipelineMetrics

	mu      sync.Mutex
	running bool
	current *pipeline.RunState
}

// NewOperationsService creates the operations service. hub and metrics
// may be nil.
func NewOperationsService(cfg *config.Config, paths *config.Paths, hub pipeline.Listener, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &OperationsService{
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		hub:     hub,
		metrics: metrics,
	}
}

// Start launches a run in the background and returns its initial state.
// Progress is published through the hub; completion flips the running
// flag back.
func (svc *OperationsService) Start(ctx context.Context, req OperationRequest) (pipeline.RunView, error) {
	svc.mu.Lock()
	if svc.running {
		svc.mu.Unlock()
		return pipeline.RunView{}, apierrors.ErrPipelineRunning
	}
	svc.running = true
	svc.mu.Unlock()

	stages := svc.buildStages(req)

	opts := []pipeline.Option{}
	if svc.hub != nil {
		opts = append(opts, pipeline.WithListener(svc.hub))
	}
	if svc.metrics != nil {
		opts = append(opts, pipeline.WithMetrics(svc.metrics))
	}
	runner := pipeline.NewRunner(svc.logger, stages, opts...)

	state := runner.Prepare()

	svc.mu.Lock()
	svc.current = state
	svc.mu.Unlock()

	// The run outlives the HTTP request that launched it.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		if _, err := runner.RunPrepared(runCtx, state); err != nil {
			svc.logger.Error("operation run failed",
				slog.String("run_id", state.ID),
				slog.String("error", err.Error()))
		}

		svc.mu.Lock()
		svc.running = false
		svc.mu.Unlock()
	}()

	return state.View(), nil
}

// Status reports whether a run is active and the most recent run's state
func (svc *OperationsService) Status(ctx context.Context) (bool, *pipeline.RunView) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.current == nil {
		return svc.running, nil
	}
	view := svc.current.View()
	return svc.running, &view
}

func (svc *OperationsService) buildStages(req OperationRequest) []pipeline.Stage {
	writer := exporter.NewCSVWriter(svc.paths)

	var stages []pipeline.Stage
	if !req.SkipScrape {
		scraper := scrape.New(svc.cfg.Scrape, svc.paths, svc.logger)
		stages = append(stages, pipeline.NewScrapeStage(scraper, writer))
	}

	start := req.Start
	if start.IsZero() {
		// The source page's change log reaches back to the mid 90s.
		start = time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	stages = append(stages, pipeline.NewReconstructStage(svc.paths, writer, start, svc.logger))

	if req.SeriesA != "" && req.SeriesB != "" {
		cfg := svc.cfg.Analytics
		if req.Window >= 2 {
			cfg.DefaultWindow = req.Window
		}
		stages = append(stages, pipeline.NewAnalyzeStage(svc.paths, writer, cfg, req.SeriesA, req.SeriesB, svc.logger))
	}

	return stages
}
