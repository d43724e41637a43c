// Package services holds the business services behind the HTTP layer.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"idxlens/internal/config"
	"idxlens/internal/constituents"
	apierrors "idxlens/internal/errors"
	"idxlens/pkg/contracts/domain"
)

// DataService serves the scraped and reconstructed data sets
type DataService struct {
	config *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

// NewDataService creates a new data service
func NewDataService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DataService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.String("reports_dir", paths.ReportsDir))

	return &DataService{
		config: cfg,
		paths:  paths,
		logger: logger,
	}
}

// GetConstituents returns the current snapshot rows
func (ds *DataService) GetConstituents(ctx context.Context) ([]domain.Constituent, error) {
	if !config.FileExists(ds.paths.ConstituentsCSV) {
		return nil, apierrors.ErrDataNotFound
	}

	snapshot, err := constituents.LoadSnapshot(ds.paths.ConstituentsCSV)
	if err != nil {
		ds.logger.ErrorContext(ctx, "failed to load constituents",
			slog.String("path", ds.paths.ConstituentsCSV),
			slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("load constituents", err)
	}

	return snapshot, nil
}

// GetChanges returns the change log rows
func (ds *DataService) GetChanges(ctx context.Context) ([]domain.ChangeRecord, error) {
	if !config.FileExists(ds.paths.ChangesCSV) {
		return nil, apierrors.ErrDataNotFound
	}

	changes, err := constituents.LoadChanges(ds.paths.ChangesCSV)
	if err != nil {
		ds.logger.ErrorContext(ctx, "failed to load changes",
			slog.String("path", ds.paths.ChangesCSV),
			slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("load changes", err)
	}

	return changes, nil
}

// GetMemberships returns the full reconstructed membership history
func (ds *DataService) GetMemberships(ctx context.Context) ([]domain.MembershipRecord, error) {
	if !config.FileExists(ds.paths.MembershipsCSV) {
		return nil, apierrors.ErrDataNotFound
	}

	records, err := constituents.LoadMemberships(ds.paths.MembershipsCSV)
	if err != nil {
		ds.logger.ErrorContext(ctx, "failed to load memberships",
			slog.String("path", ds.paths.MembershipsCSV),
			slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("load memberships", err)
	}

	return records, nil
}

// GetMembershipAt returns the membership for one month. The month
// argument uses the "2006-01" layout.
func (ds *DataService) GetMembershipAt(ctx context.Context, month string) ([]domain.MembershipRecord, error) {
	at, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, apierrors.ErrValidation("month", fmt.Sprintf("%q is not a valid YYYY-MM month", month))
	}

	records, err := ds.GetMemberships(ctx)
	if err != nil {
		return nil, err
	}

	matched := constituents.MembershipAt(records, at)
	if len(matched) == 0 {
		return nil, apierrors.NotFoundError(fmt.Sprintf("membership for %s", month))
	}

	return matched, nil
}

// GetTurnover returns the per-month join and leave counts
func (ds *DataService) GetTurnover(ctx context.Context) ([]domain.TurnoverPoint, error) {
	records, err := ds.GetMemberships(ctx)
	if err != nil {
		return nil, err
	}

	return constituents.Turnover(records), nil
}
