package model

import (
	"fmt"
	"time"
)

// RunState is the full record of one provisioning session. It is created
// once per invocation and exclusively owned by the orchestrator; the
// rollback engine and status resolver only read/append to it under the
// orchestrator's control.
type RunState struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time

	Selection Selection
	// Results maps task IDs to their recorded outcome. A result exists only
	// for tasks that were selected and attempted.
	Results map[string]TaskResult
	// Applied holds the task IDs in application order. Rollback walks this
	// slice in reverse.
	Applied []string

	EnvironmentChecksPassed bool
	TerminatedEarly         bool
	UnexpectedError         bool
	RollbackTriggered       bool
	// RollbackSucceeded is meaningful only when RollbackTriggered is true.
	RollbackSucceeded bool

	Rollback []RollbackStep
}

// RollbackStep is the recorded outcome of one reversal attempt.
type RollbackStep struct {
	TaskID    string
	Confirmed bool
	// Succeeded is meaningful only when Confirmed is true; declined steps
	// are recorded but do not count as failures.
	Succeeded bool
	Error     string
}

// NewRunState creates the state for a fresh run.
func NewRunState(id string, selection Selection) *RunState {
	return &RunState{
		ID:        id,
		StartedAt: time.Now().UTC(),
		Selection: selection,
		Results:   map[string]TaskResult{},
	}
}

// RecordResult appends a task result, keeping Applied in application order.
func (r *RunState) RecordResult(res TaskResult) error {
	if res.TaskID == "" {
		return fmt.Errorf("task result without task id: %w", ErrNotValid)
	}
	if _, ok := r.Results[res.TaskID]; ok {
		return fmt.Errorf("result for task %s: %w", res.TaskID, ErrAlreadyExists)
	}

	r.Results[res.TaskID] = res
	r.Applied = append(r.Applied, res.TaskID)

	return nil
}

// Finish stamps the run end time.
func (r *RunState) Finish() {
	now := time.Now().UTC()
	r.FinishedAt = &now
}

// AllSelectedSucceeded returns true when every selected task has a result
// and every result succeeded.
func (r *RunState) AllSelectedSucceeded() bool {
	for taskID, chosen := range r.Selection {
		if !chosen {
			continue
		}
		res, ok := r.Results[taskID]
		if !ok || !res.Succeeded {
			return false
		}
	}
	return true
}
