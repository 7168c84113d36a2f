package storage

import (
	"context"

	"github.com/sstreeter/WINTOOLS/internal/model"
)

// RunRepository is the interface for run state persistence. The core never
// depends on persistence for correctness; the repository exists so runs can
// be inspected and rolled back after the process that executed them exited.
type RunRepository interface {
	SaveRun(ctx context.Context, state model.RunState) error
	GetRun(ctx context.Context, id string) (*model.RunState, error)
	GetLatestRun(ctx context.Context) (*model.RunState, error)
	ListRuns(ctx context.Context) ([]model.RunState, error)
}
