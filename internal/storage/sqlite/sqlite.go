package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.RunRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// SaveRun stores or replaces a run and all its task results and rollback
// steps in a single transaction.
func (r *Repository) SaveRun(ctx context.Context, state model.RunState) error {
	if state.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	selection, err := json.Marshal(state.Selection)
	if err != nil {
		return fmt.Errorf("could not serialize selection: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Replacing the run row cascades over results and steps, so a re-save
	// of a later state never leaves stale children behind.
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, state.ID); err != nil {
		return fmt.Errorf("could not replace run: %w", err)
	}

	var finishedAt *int64
	if state.FinishedAt != nil {
		u := state.FinishedAt.Unix()
		finishedAt = &u
	}

	query := `
		INSERT INTO runs (
			id, selection,
			checks_passed, terminated_early, unexpected_error,
			rollback_triggered, rollback_succeeded,
			started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		state.ID,
		string(selection),
		state.EnvironmentChecksPassed,
		state.TerminatedEarly,
		state.UnexpectedError,
		state.RollbackTriggered,
		state.RollbackSucceeded,
		state.StartedAt.Unix(),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert run: %w", err)
	}

	for _, taskID := range state.Applied {
		result := state.Results[taskID]
		change, err := json.Marshal(result.Change)
		if err != nil {
			return fmt.Errorf("could not serialize change record: %w", err)
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO task_results (run_id, task_id, sequence, attempted, succeeded, reversible, change, error, applied_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			state.ID,
			result.TaskID,
			result.Sequence,
			result.Attempted,
			result.Succeeded,
			result.Reversible,
			string(change),
			result.Error,
			result.AppliedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("could not insert task result: %w", err)
		}
	}

	for i, step := range state.Rollback {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO rollback_steps (run_id, position, task_id, confirmed, succeeded, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			state.ID,
			i,
			step.TaskID,
			step.Confirmed,
			step.Succeeded,
			step.Error,
		)
		if err != nil {
			return fmt.Errorf("could not insert rollback step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Saved run in repository: %s", state.ID)
	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunState, error) {
	query := runSelect + ` WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	run, err := r.scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	if err := r.loadChildren(ctx, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// GetLatestRun retrieves the most recently started run.
func (r *Repository) GetLatestRun(ctx context.Context) (*model.RunState, error) {
	query := runSelect + ` ORDER BY started_at DESC, id DESC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query)
	run, err := r.scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no runs stored: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	if err := r.loadChildren(ctx, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// ListRuns returns all runs, most recent first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunState, error) {
	query := runSelect + ` ORDER BY started_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunState
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i := range runs {
		if err := r.loadChildren(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

const runSelect = `
	SELECT
		id, selection,
		checks_passed, terminated_early, unexpected_error,
		rollback_triggered, rollback_succeeded,
		started_at, finished_at
	FROM runs
`

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRun(s scanner) (model.RunState, error) {
	var run model.RunState
	var selection string
	var startedAt sql.NullInt64
	var finishedAt sql.NullInt64

	err := s.Scan(
		&run.ID,
		&selection,
		&run.EnvironmentChecksPassed,
		&run.TerminatedEarly,
		&run.UnexpectedError,
		&run.RollbackTriggered,
		&run.RollbackSucceeded,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return model.RunState{}, err
	}

	run.Selection = model.Selection{}
	if err := json.Unmarshal([]byte(selection), &run.Selection); err != nil {
		return model.RunState{}, fmt.Errorf("could not deserialize selection: %w", err)
	}

	if !startedAt.Valid {
		return model.RunState{}, fmt.Errorf("started_at is required")
	}
	run.StartedAt = timeFromUnix(startedAt.Int64)
	if finishedAt.Valid {
		t := timeFromUnix(finishedAt.Int64)
		run.FinishedAt = &t
	}

	run.Results = map[string]model.TaskResult{}

	return run, nil
}

// loadChildren fills the task results and rollback steps of a scanned run.
func (r *Repository) loadChildren(ctx context.Context, run *model.RunState) error {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT task_id, sequence, attempted, succeeded, reversible, change, error, applied_at
		 FROM task_results WHERE run_id = ? ORDER BY sequence ASC`,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("could not query task results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result model.TaskResult
		var change string
		var appliedAt int64

		err := rows.Scan(
			&result.TaskID,
			&result.Sequence,
			&result.Attempted,
			&result.Succeeded,
			&result.Reversible,
			&change,
			&result.Error,
			&appliedAt,
		)
		if err != nil {
			return fmt.Errorf("could not scan task result: %w", err)
		}

		result.Change = model.ChangeRecord{}
		if err := json.Unmarshal([]byte(change), &result.Change); err != nil {
			return fmt.Errorf("could not deserialize change record: %w", err)
		}
		result.AppliedAt = timeFromUnix(appliedAt)

		run.Results[result.TaskID] = result
		run.Applied = append(run.Applied, result.TaskID)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating task results: %w", err)
	}

	stepRows, err := r.db.QueryContext(
		ctx,
		`SELECT task_id, confirmed, succeeded, error
		 FROM rollback_steps WHERE run_id = ? ORDER BY position ASC`,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("could not query rollback steps: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var step model.RollbackStep
		if err := stepRows.Scan(&step.TaskID, &step.Confirmed, &step.Succeeded, &step.Error); err != nil {
			return fmt.Errorf("could not scan rollback step: %w", err)
		}
		run.Rollback = append(run.Rollback, step)
	}

	if err := stepRows.Err(); err != nil {
		return fmt.Errorf("error iterating rollback steps: %w", err)
	}

	return nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
