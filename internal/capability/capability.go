package capability

import (
	"context"
	"fmt"

	"github.com/sstreeter/WINTOOLS/internal/model"
)

// Outcome is the explicit result of a provider apply operation.
type Outcome struct {
	Succeeded bool
	// Change carries the data needed to invert the change later. Providers
	// must fill it for every successful reversible apply; an empty record
	// makes the task non-reversible for the run.
	Change model.ChangeRecord
	// Detail is a short human-readable note about what happened
	// (e.g. "already in desired state").
	Detail string
}

// Provider performs one concrete machine mutation and its inverse.
//
// Apply never returns an error for expected failure modes (permission
// denied, already in desired state, service unavailable); those come back as
// Succeeded=false. A non-nil error means a truly unexpected condition and
// halts the run.
//
// Invert is a best-effort inverse used only by the rollback engine; it is
// not guaranteed atomic.
type Provider interface {
	Apply(ctx context.Context, params model.TaskParams) (*Outcome, error)
	Invert(ctx context.Context, change model.ChangeRecord) error
}

// Registry maps capability kinds to their provider implementations, resolved
// once at startup.
type Registry map[model.CapabilityKind]Provider

// Validate ensures every given task has a bound provider.
func (r Registry) Validate(tasks []model.Task) error {
	for _, t := range tasks {
		if _, ok := r[t.Capability]; !ok {
			return fmt.Errorf("no provider bound for capability %s (task %s): %w", t.Capability, t.ID, model.ErrNotValid)
		}
	}
	return nil
}

// EnvironmentChecker runs the preflight checks once before any task
// executes. Any error-status result is a hard stop for the run.
type EnvironmentChecker interface {
	Check(ctx context.Context) ([]model.CheckResult, error)
}

// EnvironmentCheckerFunc is a convenience adapter to allow ordinary
// functions as checkers.
type EnvironmentCheckerFunc func(ctx context.Context) ([]model.CheckResult, error)

func (f EnvironmentCheckerFunc) Check(ctx context.Context) ([]model.CheckResult, error) {
	return f(ctx)
}
