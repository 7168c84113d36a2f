package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.RunRepository.
type Repository struct {
	runs   map[string]model.RunState
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   make(map[string]model.RunState),
		logger: cfg.Logger,
	}, nil
}

// SaveRun stores or replaces a run by ID.
func (r *Repository) SaveRun(ctx context.Context, state model.RunState) error {
	if state.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[state.ID] = state
	r.logger.Debugf("Saved run in repository: %s", state.ID)

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	runCopy := run
	return &runCopy, nil
}

// GetLatestRun retrieves the most recently started run.
func (r *Repository) GetLatestRun(ctx context.Context) (*model.RunState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.RunState
	for _, run := range r.runs {
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			runCopy := run
			latest = &runCopy
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("no runs stored: %w", model.ErrNotFound)
	}

	return latest, nil
}

// ListRuns returns all runs, most recent first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.RunState, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })

	return runs, nil
}
