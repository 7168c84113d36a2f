package model

import (
	"fmt"
	"time"
)

// CapabilityKind identifies the machine aspect a task mutates. Each kind is
// bound to exactly one capability provider at startup.
type CapabilityKind string

const (
	CapabilityAccountManagement CapabilityKind = "account_management"
	CapabilityHostRename        CapabilityKind = "host_rename"
	CapabilityRemoteDesktop     CapabilityKind = "remote_desktop"
	CapabilityPowerPolicy       CapabilityKind = "power_policy"
	CapabilitySSHService        CapabilityKind = "ssh_service"
	CapabilityActivation        CapabilityKind = "activation"
)

// Task is a single provisioning step from the catalog. Tasks are immutable,
// defined once at process start.
type Task struct {
	ID          string
	Name        string
	Description string
	Capability  CapabilityKind
	Reversible  bool
}

// Validate validates the task definition.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", ErrNotValid)
	}
	if t.Name == "" {
		return fmt.Errorf("task name is required: %w", ErrNotValid)
	}
	if t.Capability == "" {
		return fmt.Errorf("task capability is required: %w", ErrNotValid)
	}
	return nil
}

// Selection maps task IDs to a chosen flag. It is built before a run starts
// and read-only afterwards.
type Selection map[string]bool

// Chosen returns the number of selected tasks.
func (s Selection) Chosen() int {
	n := 0
	for _, chosen := range s {
		if chosen {
			n++
		}
	}
	return n
}

// TaskParams are the capability-specific parameters for a single task
// (e.g. the new hostname, the account username).
type TaskParams map[string]string

// RunParams maps task IDs to their parameters.
type RunParams map[string]TaskParams

// ChangeRecord is the minimal data captured at apply time that is sufficient
// to reverse a change later. Keys are capability-specific
// (e.g. "old_hostname", "account_pre_existed").
type ChangeRecord map[string]string

// Well-known change record keys shared between providers and the rollback
// engine.
const (
	// ChangeKeyAccountPreExisted marks that the account existed before the
	// run. A pre-existing account must never be deleted on rollback.
	ChangeKeyAccountPreExisted = "account_pre_existed"
)

// Empty returns true when the record carries no data to invert from.
func (c ChangeRecord) Empty() bool { return len(c) == 0 }

// AccountPreExisted reports whether the record marks a pre-existing account.
func (c ChangeRecord) AccountPreExisted() bool {
	return c[ChangeKeyAccountPreExisted] == "true"
}

// TaskResult is the recorded outcome of one executed task. It is written
// once when the task executes and never mutated afterwards.
type TaskResult struct {
	TaskID    string
	Sequence  int // Application order within the run, starting at 1.
	Attempted bool
	Succeeded bool
	// Reversible is the effective per-run flag: a catalog-reversible task
	// whose provider could not supply a change record is recorded as
	// non-reversible for this run.
	Reversible bool
	Change     ChangeRecord
	Error      string
	AppliedAt  time.Time
}
