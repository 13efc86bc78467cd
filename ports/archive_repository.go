package ports

import (
	"context"

	"tamperstat/domain/core"
	"tamperstat/domain/run"
)

// ArchiveRepository defines the interface for persisting evaluation runs
type ArchiveRepository interface {
	// SaveRun stores the run and all of its metrics atomically
	SaveRun(ctx context.Context, r *run.Run, metrics []run.Metric) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)

	// ListRuns returns the most recent runs first, optionally limited
	ListRuns(ctx context.Context, limit int) ([]*run.Run, error)

	// ListMetrics returns a run's metrics in the order they were saved
	ListMetrics(ctx context.Context, id core.RunID) ([]run.Metric, error)
}
