package http

import (
	"context"

	"idxlens/internal/pipeline"
	"idxlens/internal/services"
	"idxlens/pkg/contracts/domain"
)

// DataReader is the part of the data service the handlers need
type DataReader interface {
	GetConstituents(ctx context.Context) ([]domain.Constituent, error)
	GetChanges(ctx context.Context) ([]domain.ChangeRecord, error)
	GetMemberships(ctx context.Context) ([]domain.MembershipRecord, error)
	GetMembershipAt(ctx context.Context, month string) ([]domain.MembershipRecord, error)
	GetTurnover(ctx context.Context) ([]domain.TurnoverPoint, error)
}

// AnalyticsProvider computes rolling statistics on demand
type AnalyticsProvider interface {
	RollingCorrelation(ctx context.Context, req services.RollingCorrelationRequest) ([]domain.CorrelationPoint, error)
	SeriesNames(ctx context.Context) ([]string, error)
}

// OperationsRunner starts and inspects pipeline runs
type OperationsRunner interface {
	Start(ctx context.Context, req services.OperationRequest) (pipeline.RunView, error)
	Status(ctx context.Context) (bool, *pipeline.RunView)
}

// HealthChecker reports service health
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	Readiness(ctx context.Context) bool
}
