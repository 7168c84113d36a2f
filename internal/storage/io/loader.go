package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/sstreeter/WINTOOLS/internal/capability/command"
	"github.com/sstreeter/WINTOOLS/internal/catalog"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/policy"
)

// Plan is a validated provisioning plan: which tasks to run, their
// parameters, and optional shell command bindings for the tasks.
type Plan struct {
	Selection model.Selection
	Params    model.RunParams
	Bindings  map[model.CapabilityKind]command.Binding
	// CheckCommand is an optional shell command used as the environment
	// check when the command providers are selected.
	CheckCommand string
	WorkDir      string
}

// PlanYAMLRepository loads provisioning plans from YAML files.
type PlanYAMLRepository struct {
	fs fs.FS
}

// NewPlanYAMLRepository creates a new YAML plan repository.
func NewPlanYAMLRepository(filesystem fs.FS) *PlanYAMLRepository {
	return &PlanYAMLRepository{fs: filesystem}
}

// GetPlan loads a provisioning plan from a YAML file and returns a validated
// domain model.
func (r *PlanYAMLRepository) GetPlan(ctx context.Context, path string) (Plan, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return Plan{}, fmt.Errorf("reading plan file: %w", err)
	}

	if ctx.Err() != nil {
		return Plan{}, ctx.Err()
	}

	var plan PlanConfig
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := plan.validate(); err != nil {
		return Plan{}, fmt.Errorf("invalid plan: %w", err)
	}

	return plan.toModel(), nil
}

// PlanConfig represents the YAML structure for a provisioning plan.
type PlanConfig struct {
	Tasks    []string                     `yaml:"tasks"`
	Params   map[string]map[string]string `yaml:"params"`
	Commands *CommandsConfig              `yaml:"commands,omitempty"`
}

// CommandsConfig represents the YAML structure for shell command bindings.
type CommandsConfig struct {
	WorkDir string                   `yaml:"work_dir"`
	Check   string                   `yaml:"check"`
	Tasks   map[string]BindingConfig `yaml:"tasks"`
}

// BindingConfig represents the YAML structure for one capability binding.
type BindingConfig struct {
	Apply  string `yaml:"apply"`
	Invert string `yaml:"invert"`
}

func (c PlanConfig) validate() error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}

	seen := map[string]bool{}
	for _, id := range c.Tasks {
		if _, err := catalog.Get(id); err != nil {
			return fmt.Errorf("unknown task %q (known: %v)", id, catalog.TaskIDs())
		}
		if seen[id] {
			return fmt.Errorf("task %q selected twice", id)
		}
		seen[id] = true
	}

	for id := range c.Params {
		if _, err := catalog.Get(id); err != nil {
			return fmt.Errorf("params for unknown task %q", id)
		}
	}

	if c.Commands != nil {
		for id, binding := range c.Commands.Tasks {
			if _, err := catalog.Get(id); err != nil {
				return fmt.Errorf("command binding for unknown task %q", id)
			}
			if binding.Apply == "" {
				return fmt.Errorf("command binding for task %q: apply is required", id)
			}
		}
	}

	return nil
}

func (c PlanConfig) toModel() Plan {
	plan := Plan{
		Selection: model.Selection{},
		Params:    model.RunParams{},
	}

	for _, id := range c.Tasks {
		plan.Selection[id] = true
	}

	for id, params := range c.Params {
		taskParams := model.TaskParams{}
		for k, v := range params {
			taskParams[k] = sanitizeParam(k, v)
		}
		plan.Params[id] = taskParams
	}

	if c.Commands != nil {
		plan.WorkDir = c.Commands.WorkDir
		plan.CheckCommand = c.Commands.Check
		plan.Bindings = map[model.CapabilityKind]command.Binding{}
		for id, binding := range c.Commands.Tasks {
			task, _ := catalog.Get(id)
			plan.Bindings[task.Capability] = command.Binding{
				Apply:  binding.Apply,
				Invert: binding.Invert,
			}
		}
	}

	return plan
}

// sanitizeParam normalizes identity parameters before they reach any
// provider. Hostnames and usernames come from humans and get the same
// treatment regardless of provider.
func sanitizeParam(key, value string) string {
	switch key {
	case "hostname", "new_hostname":
		return policy.SanitizeHostname(value)
	case "username":
		return policy.SanitizeUsername(value)
	}
	return value
}
