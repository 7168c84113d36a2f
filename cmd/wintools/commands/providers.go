package commands

import (
	"fmt"

	"github.com/sstreeter/WINTOOLS/internal/capability"
	"github.com/sstreeter/WINTOOLS/internal/capability/command"
	"github.com/sstreeter/WINTOOLS/internal/capability/fake"
	storageio "github.com/sstreeter/WINTOOLS/internal/storage/io"
)

const (
	providersFake    = "fake"
	providersCommand = "command"
)

// buildProviders wires the capability providers and environment checker for
// a command. The fake kind simulates a workstation in memory, the command
// kind binds each capability to the shell commands of the plan file.
func buildProviders(rootCmd *RootCommand, kind string, plan *storageio.Plan) (capability.Registry, capability.EnvironmentChecker, error) {
	switch kind {
	case providersFake:
		machine, err := fake.NewMachine(fake.MachineConfig{Logger: rootCmd.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create fake machine: %w", err)
		}
		return machine.Registry(), machine.Checker(), nil

	case providersCommand:
		if plan == nil || len(plan.Bindings) == 0 {
			return nil, nil, fmt.Errorf("command providers need a plan file with a commands section")
		}

		registry, err := command.NewRegistry(plan.Bindings, plan.WorkDir, rootCmd.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("could not create command providers: %w", err)
		}

		// The checker is only needed by commands that run tasks; rollbacks
		// work without one.
		var checker capability.EnvironmentChecker
		if plan.CheckCommand != "" {
			checker = command.NewChecker(plan.CheckCommand, plan.WorkDir, rootCmd.Logger)
		}

		return registry, checker, nil
	}

	return nil, nil, fmt.Errorf("unknown providers kind: %s", kind)
}
