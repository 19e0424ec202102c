// Package store persists finished pipeline runs for the runs listing and
// later inspection.
package store

import (
	"context"

	"github.com/sells-group/transition-cli/internal/model"
)

// RunFilter narrows ListRuns output. Zero values mean "no constraint".
type RunFilter struct {
	Status model.RunStatus
	HSCode string
	Limit  int
	Offset int
}

// Store is the persistence boundary for pipeline runs.
type Store interface {
	// SaveRun writes one finished run. The run's ID must be set.
	SaveRun(ctx context.Context, run *model.PipelineRun) error

	// GetRun loads one run by ID.
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)

	// ListRuns returns runs matching the filter, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.PipelineRun, error)

	Close() error
}
