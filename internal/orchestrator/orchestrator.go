package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sstreeter/WINTOOLS/internal/capability"
	"github.com/sstreeter/WINTOOLS/internal/catalog"
	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/storage"
)

// Roller reverses the applied changes of a run. Implemented by the rollback
// engine; split out so the orchestrator is testable without it.
type Roller interface {
	Rollback(ctx context.Context, state *model.RunState) bool
}

// ServiceConfig is the configuration for the orchestrator.
type ServiceConfig struct {
	Providers capability.Registry
	Checker   capability.EnvironmentChecker
	// Roller is optional. Without one, an unexpected error leaves the run
	// in the failed state instead of triggering a rollback.
	Roller Roller
	// Repository is optional. When set, the final run state is persisted so
	// it can be inspected and rolled back later.
	Repository storage.RunRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Providers == nil {
		return fmt.Errorf("providers are required")
	}
	if c.Checker == nil {
		return fmt.Errorf("environment checker is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Run"})
	return nil
}

// Service executes provisioning runs: one linear pass over the selected
// catalog tasks, strictly sequential, single-threaded. It exclusively owns
// the RunState for the lifetime of the run.
type Service struct {
	providers capability.Registry
	checker   capability.EnvironmentChecker
	roller    Roller
	repo      storage.RunRepository
	logger    log.Logger
}

// NewService creates a new orchestrator.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		providers: cfg.Providers,
		checker:   cfg.Checker,
		roller:    cfg.Roller,
		repo:      cfg.Repository,
		logger:    cfg.Logger,
	}, nil
}

// RunOptions are the options for a provisioning run.
type RunOptions struct {
	Selection model.Selection
	Params    model.RunParams
}

// Run executes the selected tasks in catalog order and returns the run
// state. Task-level failures are recorded in the state and never returned
// as errors; a non-nil error means the run could not be wired at all
// (unknown task, unbound capability).
func (s *Service) Run(ctx context.Context, opts RunOptions) (*model.RunState, error) {
	// 1. Validate selection against the catalog and provider bindings.
	selected := make([]model.Task, 0, len(opts.Selection))
	for _, task := range catalog.Tasks() {
		if opts.Selection[task.ID] {
			selected = append(selected, task)
		}
	}
	if len(selected) != opts.Selection.Chosen() {
		return nil, fmt.Errorf("selection references unknown tasks: %w", model.ErrNotValid)
	}
	if err := s.providers.Validate(selected); err != nil {
		return nil, fmt.Errorf("invalid provider bindings: %w", err)
	}

	state := model.NewRunState(ulid.Make().String(), opts.Selection)
	s.logger.Infof("Starting run %s (%d tasks selected)", state.ID, len(selected))

	// 2. Pre-flight. A failing check is a hard stop with nothing changed,
	// so there is nothing to roll back.
	results, err := s.checker.Check(ctx)
	if err != nil || model.HasErrors(results) {
		if err != nil {
			s.logger.Errorf("Environment checks could not run: %s", err)
		} else {
			s.logger.Errorf("Environment checks failed")
		}
		state.TerminatedEarly = true
		s.finish(ctx, state)
		return state, nil
	}
	state.EnvironmentChecksPassed = true

	// 3. Execute tasks in catalog order. Reported failures are recorded
	// and the loop continues; an unexpected provider error stops the run
	// and hands control to the rollback engine.
	for _, task := range selected {
		if s.applyTask(ctx, state, task, opts.Params[task.ID]) {
			continue
		}

		state.UnexpectedError = true
		if s.roller != nil {
			s.logger.Warningf("Unexpected error on task %s, starting rollback", task.ID)
			s.roller.Rollback(ctx, state)
		}
		break
	}

	s.finish(ctx, state)
	return state, nil
}

// applyTask runs one task and records its result. It returns false when the
// provider raised an unexpected error and the run must stop.
func (s *Service) applyTask(ctx context.Context, state *model.RunState, task model.Task, params model.TaskParams) bool {
	provider := s.providers[task.Capability]
	sequence := len(state.Applied) + 1

	outcome, err := provider.Apply(ctx, params)
	if err != nil {
		s.logger.Errorf("Task %s raised unexpectedly: %s", task.ID, err)
		s.record(state, model.TaskResult{
			TaskID:    task.ID,
			Sequence:  sequence,
			Attempted: true,
			Error:     err.Error(),
			AppliedAt: time.Now().UTC(),
		})
		return false
	}

	result := model.TaskResult{
		TaskID:    task.ID,
		Sequence:  sequence,
		Attempted: true,
		Succeeded: outcome.Succeeded,
		Change:    outcome.Change,
		Error:     "",
		AppliedAt: time.Now().UTC(),
	}
	if !outcome.Succeeded {
		result.Error = outcome.Detail
	}

	// A reversible task stays reversible for this run only if the provider
	// captured enough data to invert the change.
	result.Reversible = task.Reversible && outcome.Succeeded && !outcome.Change.Empty()
	if task.Reversible && outcome.Succeeded && outcome.Change.Empty() {
		s.logger.Debugf("Task %s succeeded without a change record, marking non-reversible for this run", task.ID)
	}

	if outcome.Succeeded {
		s.logger.Infof("Task %s applied", task.ID)
	} else {
		s.logger.Warningf("Task %s failed: %s", task.ID, result.Error)
	}

	s.record(state, result)
	return true
}

func (s *Service) record(state *model.RunState, result model.TaskResult) {
	if err := state.RecordResult(result); err != nil {
		// Only possible with a duplicate task in the loop, which the
		// catalog ordering rules out.
		s.logger.Errorf("Could not record result for task %s: %s", result.TaskID, err)
	}
}

// finish stamps and persists the final run state. Persistence failures are
// logged, not returned: the run already happened.
func (s *Service) finish(ctx context.Context, state *model.RunState) {
	state.Finish()

	if s.repo == nil {
		return
	}
	if err := s.repo.SaveRun(ctx, *state); err != nil {
		s.logger.Warningf("Could not persist run %s: %s", state.ID, err)
	}
}
