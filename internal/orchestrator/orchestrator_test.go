package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sstreeter/WINTOOLS/internal/capability/capabilitymock"
	"github.com/sstreeter/WINTOOLS/internal/capability/fake"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/orchestrator"
	"github.com/sstreeter/WINTOOLS/internal/rollback"
	"github.com/sstreeter/WINTOOLS/internal/status"
	"github.com/sstreeter/WINTOOLS/internal/storage/memory"
	"github.com/sstreeter/WINTOOLS/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	machine, err := fake.NewMachine(fake.MachineConfig{})
	require.NoError(t, err)

	tests := map[string]struct {
		cfg    orchestrator.ServiceConfig
		expErr bool
		errMsg string
	}{
		"Valid config with all fields": {
			cfg: orchestrator.ServiceConfig{
				Providers: machine.Registry(),
				Checker:   machine.Checker(),
			},
			expErr: false,
		},
		"Missing providers returns error": {
			cfg: orchestrator.ServiceConfig{
				Checker: machine.Checker(),
			},
			expErr: true,
			errMsg: "providers are required",
		},
		"Missing checker returns error": {
			cfg: orchestrator.ServiceConfig{
				Providers: machine.Registry(),
			},
			expErr: true,
			errMsg: "environment checker is required",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := orchestrator.NewService(tt.cfg)

			if tt.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, svc)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

// newFakeOrchestrator wires a fake machine, a memory repository and an
// auto-confirming rollback engine into an orchestrator.
func newFakeOrchestrator(t *testing.T, machine *fake.Machine) (*orchestrator.Service, *memory.Repository) {
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	roller, err := rollback.NewService(rollback.ServiceConfig{
		Providers: machine.Registry(),
	})
	require.NoError(t, err)

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Providers:  machine.Registry(),
		Checker:    machine.Checker(),
		Roller:     roller,
		Repository: repo,
	})
	require.NoError(t, err)

	return svc, repo
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		machine     func(t *testing.T) *fake.Machine
		opts        orchestrator.RunOptions
		expErr      bool
		expLabel    model.StatusLabel
		validateRes func(t *testing.T, state *model.RunState, machine *fake.Machine)
	}{
		"A full successful run applies every selected task in catalog order": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{Hostname: "old-pc"})
				require.NoError(t, err)
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"account": true, "hostname": true, "rdp": true, "power": true, "ssh": true, "activation": true},
				Params: model.RunParams{
					"account":    {"username": "svc.deploy"},
					"hostname":   {"hostname": "ws-0042"},
					"activation": {"product_key": "XXXXX-XXXXX"},
				},
			},
			expLabel: model.StatusSuccess,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				assert.Equal(t, []string{"account", "hostname", "rdp", "power", "ssh", "activation"}, state.Applied)
				assert.Equal(t, "ws-0042", machine.Hostname())
				assert.True(t, machine.HasAccount("svc.deploy"))
				assert.True(t, machine.RDPEnabled())
				assert.True(t, machine.SSHRunning())
				assert.True(t, machine.Activated())
				assert.NotNil(t, state.FinishedAt)

				// Sequence numbers follow application order.
				for i, taskID := range state.Applied {
					assert.Equal(t, i+1, state.Results[taskID].Sequence)
				}
			},
		},

		"A failing environment check stops the run before any task": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{Hostname: "old-pc"})
				require.NoError(t, err)
				m.FailChecks()
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"hostname": true},
				Params:    model.RunParams{"hostname": {"hostname": "ws-0042"}},
			},
			expLabel: model.StatusCanceledPreflight,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				assert.Empty(t, state.Results)
				assert.Empty(t, state.Applied)
				assert.True(t, state.TerminatedEarly)
				assert.False(t, state.EnvironmentChecksPassed)
				assert.Equal(t, "old-pc", machine.Hostname())
			},
		},

		"An expected failure is recorded and later tasks still run": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{})
				require.NoError(t, err)
				m.DenyWith(model.CapabilityRemoteDesktop, "policy blocks remote desktop")
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"rdp": true, "ssh": true},
			},
			expLabel: model.StatusPartialSuccess,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				require.Len(t, state.Applied, 2)
				assert.False(t, state.Results["rdp"].Succeeded)
				assert.Equal(t, "policy blocks remote desktop", state.Results["rdp"].Error)
				assert.True(t, state.Results["ssh"].Succeeded)
				assert.True(t, machine.SSHRunning())
				assert.False(t, state.UnexpectedError)
			},
		},

		"An unexpected error halts the run and rolls back earlier changes only": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{Hostname: "old-pc"})
				require.NoError(t, err)
				m.FailWith(model.CapabilityRemoteDesktop, errors.New("registry hive unreadable"))
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"hostname": true, "rdp": true, "ssh": true},
				Params:    model.RunParams{"hostname": {"hostname": "ws-0042"}},
			},
			expLabel: model.StatusCanceledRollbackOK,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				// The ssh task never ran.
				assert.Equal(t, []string{"hostname", "rdp"}, state.Applied)
				assert.True(t, state.UnexpectedError)
				assert.Contains(t, state.Results["rdp"].Error, "registry hive unreadable")

				// Only the hostname change was reversed, rdp never succeeded.
				require.Len(t, state.Rollback, 1)
				assert.Equal(t, "hostname", state.Rollback[0].TaskID)
				assert.Equal(t, "old-pc", machine.Hostname())
				assert.False(t, machine.SSHRunning())
			},
		},

		"A pre-existing account survives the rollback": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{Accounts: []string{"svc.deploy"}})
				require.NoError(t, err)
				m.FailWith(model.CapabilitySSHService, errors.New("service manager unavailable"))
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"account": true, "ssh": true},
				Params:    model.RunParams{"account": {"username": "svc.deploy"}},
			},
			expLabel: model.StatusCanceledRollbackOK,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				assert.True(t, machine.HasAccount("svc.deploy"))
				require.Len(t, state.Rollback, 1)
				assert.Equal(t, "account", state.Rollback[0].TaskID)
				assert.False(t, state.Rollback[0].Confirmed)
			},
		},

		"A reversible task without a change record is non-reversible for the run": {
			machine: func(t *testing.T) *fake.Machine {
				// Hostname already matches the requested one, so the provider
				// succeeds without capturing anything to invert.
				m, err := fake.NewMachine(fake.MachineConfig{Hostname: "ws-0042"})
				require.NoError(t, err)
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"hostname": true},
				Params:    model.RunParams{"hostname": {"hostname": "ws-0042"}},
			},
			expLabel: model.StatusSuccess,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				result := state.Results["hostname"]
				assert.True(t, result.Succeeded)
				assert.False(t, result.Reversible)
				assert.True(t, result.Change.Empty())
			},
		},

		"An empty selection runs no tasks": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{})
				require.NoError(t, err)
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{},
			},
			expLabel: model.StatusNoOperations,
			validateRes: func(t *testing.T, state *model.RunState, machine *fake.Machine) {
				assert.Empty(t, state.Applied)
				assert.True(t, state.EnvironmentChecksPassed)
			},
		},

		"A selection with unknown tasks is rejected before running": {
			machine: func(t *testing.T) *fake.Machine {
				m, err := fake.NewMachine(fake.MachineConfig{})
				require.NoError(t, err)
				return m
			},
			opts: orchestrator.RunOptions{
				Selection: model.Selection{"defrag": true},
			},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			machine := tt.machine(t)
			svc, repo := newFakeOrchestrator(t, machine)

			state, err := svc.Run(context.Background(), tt.opts)

			if tt.expErr {
				require.Error(t, err)
				assert.Nil(t, state)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, state)
			assert.Equal(t, tt.expLabel, status.Resolve(*state))
			tt.validateRes(t, state, machine)

			// The final state was persisted.
			stored, err := repo.GetRun(context.Background(), state.ID)
			require.NoError(t, err)
			assert.Equal(t, status.Resolve(*stored), tt.expLabel)
		})
	}
}

func TestServiceRunWithoutRoller(t *testing.T) {
	machine, err := fake.NewMachine(fake.MachineConfig{Hostname: "old-pc"})
	require.NoError(t, err)
	machine.FailWith(model.CapabilityRemoteDesktop, errors.New("registry hive unreadable"))

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Providers: machine.Registry(),
		Checker:   machine.Checker(),
	})
	require.NoError(t, err)

	state, err := svc.Run(context.Background(), orchestrator.RunOptions{
		Selection: model.Selection{"hostname": true, "rdp": true},
		Params:    model.RunParams{"hostname": {"hostname": "ws-0042"}},
	})
	require.NoError(t, err)

	// Without a rollback engine the applied changes stay in place.
	assert.False(t, state.RollbackTriggered)
	assert.Equal(t, model.StatusFailed, status.Resolve(*state))
	assert.Equal(t, "ws-0042", machine.Hostname())
}

func TestServiceRunPersistenceFailure(t *testing.T) {
	machine, err := fake.NewMachine(fake.MachineConfig{})
	require.NoError(t, err)

	repo := storagemock.NewMockRunRepository(t)
	repo.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Providers:  machine.Registry(),
		Checker:    machine.Checker(),
		Repository: repo,
	})
	require.NoError(t, err)

	// A persistence failure never fails the run itself.
	state, err := svc.Run(context.Background(), orchestrator.RunOptions{
		Selection: model.Selection{"ssh": true},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, status.Resolve(*state))
}

func TestServiceRunCheckerError(t *testing.T) {
	machine, err := fake.NewMachine(fake.MachineConfig{})
	require.NoError(t, err)

	checker := capabilitymock.NewMockEnvironmentChecker(t)
	checker.On("Check", mock.Anything).Return(nil, errors.New("checks crashed"))

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Providers: machine.Registry(),
		Checker:   checker,
	})
	require.NoError(t, err)

	// A checker that cannot run at all counts as a preflight failure.
	state, err := svc.Run(context.Background(), orchestrator.RunOptions{
		Selection: model.Selection{"ssh": true},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceledPreflight, status.Resolve(*state))
	assert.Empty(t, state.Applied)
}
