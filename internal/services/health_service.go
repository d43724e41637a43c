package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"idxlens/internal/config"
	ws "idxlens/internal/websocket"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Data      map[string]bool        `json:"data,omitempty"`
	Clients   int                    `json:"websocket_clients"`
}

// NewHealthService creates a new health service. hub may be nil.
func NewHealthService(version string, paths *config.Paths, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		paths:     paths,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status including which data
// artifacts are present.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		},
		Data: map[string]bool{
			"constituents": config.FileExists(hs.paths.ConstituentsCSV),
			"changes":      config.FileExists(hs.paths.ChangesCSV),
			"memberships":  config.FileExists(hs.paths.MembershipsCSV),
			"indexes":      config.FileExists(hs.paths.IndexCSV),
		},
	}

	if hs.hub != nil {
		status.Clients = hs.hub.ClientCount()
	}

	return status
}

// Readiness reports whether the service can serve data requests
func (hs *HealthService) Readiness(ctx context.Context) bool {
	return config.FileExists(hs.paths.ConstituentsCSV) && config.FileExists(hs.paths.ChangesCSV)
}
