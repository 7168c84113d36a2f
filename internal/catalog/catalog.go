package catalog

import (
	"fmt"

	"github.com/sstreeter/WINTOOLS/internal/model"
)

// tasks is the fixed catalog. Slice order defines both execution order and
// rollback precedence (reverse of execution order). Adding a task means
// adding one entry here plus one capability provider binding; the
// orchestrator and rollback engine need no changes.
var tasks = []model.Task{
	{
		ID:          "account",
		Name:        "Account setup",
		Description: "Create or update the local administrator account.",
		Capability:  model.CapabilityAccountManagement,
		Reversible:  true,
	},
	{
		ID:          "hostname",
		Name:        "Host rename",
		Description: "Rename the machine to the standardized device name.",
		Capability:  model.CapabilityHostRename,
		Reversible:  true,
	},
	{
		ID:          "rdp",
		Name:        "Remote desktop",
		Description: "Enable remote desktop access and its firewall rule.",
		Capability:  model.CapabilityRemoteDesktop,
		Reversible:  true,
	},
	{
		ID:          "power",
		Name:        "Power policy",
		Description: "Apply the always-on power plan for remote management.",
		Capability:  model.CapabilityPowerPolicy,
		Reversible:  true,
	},
	{
		ID:          "ssh",
		Name:        "SSH service",
		Description: "Install and start the OpenSSH server service.",
		Capability:  model.CapabilitySSHService,
		Reversible:  true,
	},
	{
		ID:          "activation",
		Name:        "License activation",
		Description: "Activate the OS license against the activation service.",
		Capability:  model.CapabilityActivation,
		Reversible:  false,
	},
}

// Tasks returns the catalog tasks in execution order. The returned slice is
// a copy, callers cannot mutate the catalog.
func Tasks() []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}

// Get returns a catalog task by ID.
func Get(id string) (*model.Task, error) {
	for _, t := range tasks {
		if t.ID == id {
			taskCopy := t
			return &taskCopy, nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
}

// TaskIDs returns the catalog task IDs in execution order.
func TaskIDs() []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
