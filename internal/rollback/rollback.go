package rollback

import (
	"context"
	"fmt"

	"github.com/sstreeter/WINTOOLS/internal/capability"
	"github.com/sstreeter/WINTOOLS/internal/catalog"
	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
)

// Confirmer asks for per-step confirmation before a change is reversed. It
// is injected so the engine is testable without interactive input.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmerFunc is a convenience adapter to allow ordinary functions as
// Confirmers.
type ConfirmerFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AutoConfirm confirms every step without asking.
var AutoConfirm = ConfirmerFunc(func(_ context.Context, _ string) (bool, error) { return true, nil })

// ServiceConfig is the configuration for the rollback engine.
type ServiceConfig struct {
	Providers capability.Registry
	Confirmer Confirmer
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Providers == nil {
		return fmt.Errorf("providers are required")
	}
	if c.Confirmer == nil {
		c.Confirmer = AutoConfirm
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "rollback.Engine"})
	return nil
}

// Service walks applied changes in reverse order and reverses them through
// the same capability providers that applied them.
type Service struct {
	providers capability.Registry
	confirmer Confirmer
	logger    log.Logger
}

// NewService creates a new rollback engine.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		providers: cfg.Providers,
		confirmer: cfg.Confirmer,
		logger:    cfg.Logger,
	}, nil
}

// Rollback reverses the successful reversible changes of a run in strict
// reverse application order, one confirmation per step. It returns the
// aggregate result: the AND of all confirmed reversal attempts. Declined
// steps do not count as failures, and a run with no attempted reversals is
// trivially successful. Individual reversal failures never stop the loop.
//
// Rollback appends per-step outcomes to state.Rollback and sets the
// RollbackTriggered/RollbackSucceeded flags.
func (s *Service) Rollback(ctx context.Context, state *model.RunState) bool {
	state.RollbackTriggered = true
	succeeded := true

	// Later-applied changes are undone first.
	for i := len(state.Applied) - 1; i >= 0; i-- {
		taskID := state.Applied[i]
		result, ok := state.Results[taskID]
		if !ok {
			continue
		}
		if !result.Succeeded || !result.Reversible {
			continue
		}

		step := s.rollbackStep(ctx, taskID, result)
		state.Rollback = append(state.Rollback, step)

		if step.Confirmed && !step.Succeeded {
			succeeded = false
		}
	}

	state.RollbackSucceeded = succeeded
	s.logger.Infof("Rollback finished (succeeded: %t, steps: %d)", succeeded, len(state.Rollback))

	return succeeded
}

func (s *Service) rollbackStep(ctx context.Context, taskID string, result model.TaskResult) model.RollbackStep {
	step := model.RollbackStep{TaskID: taskID}

	task, err := catalog.Get(taskID)
	if err != nil {
		step.Error = fmt.Sprintf("unknown task: %s", err)
		return step
	}

	// A pre-existing account is never deleted, even before asking. The
	// provider enforces this too, this keeps the prompt from being shown
	// for a reversal that would be a no-op.
	if task.Capability == model.CapabilityAccountManagement && result.Change.AccountPreExisted() {
		s.logger.Infof("Skipping %q rollback: account pre-existed the run", task.Name)
		return step
	}

	provider, ok := s.providers[task.Capability]
	if !ok {
		step.Error = fmt.Sprintf("no provider bound for capability %s", task.Capability)
		return step
	}

	msg := fmt.Sprintf("Reverse %q?", task.Name)
	confirmed, err := s.confirmer.Confirm(ctx, msg)
	if err != nil {
		step.Error = fmt.Sprintf("confirmation failed: %s", err)
		return step
	}
	if !confirmed {
		s.logger.Infof("Skipping %q rollback: declined", task.Name)
		return step
	}
	step.Confirmed = true

	if err := provider.Invert(ctx, result.Change); err != nil {
		step.Error = err.Error()
		s.logger.Errorf("Could not reverse %q: %s", task.Name, err)
		return step
	}

	step.Succeeded = true
	s.logger.Infof("Reversed %q", task.Name)

	return step
}
