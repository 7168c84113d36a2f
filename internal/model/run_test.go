package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstreeter/WINTOOLS/internal/model"
)

func TestRecordResult(t *testing.T) {
	state := model.NewRunState("run-1", model.Selection{"hostname": true, "rdp": true})

	require.NoError(t, state.RecordResult(model.TaskResult{TaskID: "hostname", Sequence: 1, Attempted: true, Succeeded: true}))
	require.NoError(t, state.RecordResult(model.TaskResult{TaskID: "rdp", Sequence: 2, Attempted: true, Succeeded: true}))

	// Application order is preserved.
	assert.Equal(t, []string{"hostname", "rdp"}, state.Applied)

	// Results are written once.
	err := state.RecordResult(model.TaskResult{TaskID: "hostname"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	// A result needs a task ID.
	err = state.RecordResult(model.TaskResult{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestAllSelectedSucceeded(t *testing.T) {
	tests := map[string]struct {
		state func() *model.RunState
		exp   bool
	}{
		"All selected tasks succeeded": {
			state: func() *model.RunState {
				s := model.NewRunState("run-1", model.Selection{"hostname": true})
				s.RecordResult(model.TaskResult{TaskID: "hostname", Succeeded: true})
				return s
			},
			exp: true,
		},
		"A selected task without a result": {
			state: func() *model.RunState {
				return model.NewRunState("run-1", model.Selection{"hostname": true})
			},
			exp: false,
		},
		"A selected task that failed": {
			state: func() *model.RunState {
				s := model.NewRunState("run-1", model.Selection{"hostname": true})
				s.RecordResult(model.TaskResult{TaskID: "hostname", Succeeded: false})
				return s
			},
			exp: false,
		},
		"Unselected tasks are ignored": {
			state: func() *model.RunState {
				s := model.NewRunState("run-1", model.Selection{"hostname": true, "rdp": false})
				s.RecordResult(model.TaskResult{TaskID: "hostname", Succeeded: true})
				return s
			},
			exp: true,
		},
		"Empty selection is trivially successful": {
			state: func() *model.RunState {
				return model.NewRunState("run-1", model.Selection{})
			},
			exp: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, tt.state().AllSelectedSucceeded())
		})
	}
}

func TestChangeRecord(t *testing.T) {
	assert.True(t, model.ChangeRecord{}.Empty())
	assert.True(t, model.ChangeRecord(nil).Empty())
	assert.False(t, model.ChangeRecord{"old_hostname": "old-pc"}.Empty())

	assert.True(t, model.ChangeRecord{model.ChangeKeyAccountPreExisted: "true"}.AccountPreExisted())
	assert.False(t, model.ChangeRecord{model.ChangeKeyAccountPreExisted: "false"}.AccountPreExisted())
	assert.False(t, model.ChangeRecord{}.AccountPreExisted())
}

func TestSelectionChosen(t *testing.T) {
	assert.Equal(t, 0, model.Selection{}.Chosen())
	assert.Equal(t, 0, model.Selection{"hostname": false}.Chosen())
	assert.Equal(t, 2, model.Selection{"hostname": true, "rdp": true, "ssh": false}.Chosen())
}

func TestTaskValidate(t *testing.T) {
	tests := map[string]struct {
		task   model.Task
		expErr bool
	}{
		"Valid task": {
			task: model.Task{ID: "hostname", Name: "Host rename", Capability: model.CapabilityHostRename},
		},
		"Missing ID": {
			task:   model.Task{Name: "Host rename", Capability: model.CapabilityHostRename},
			expErr: true,
		},
		"Missing name": {
			task:   model.Task{ID: "hostname", Capability: model.CapabilityHostRename},
			expErr: true,
		},
		"Missing capability": {
			task:   model.Task{ID: "hostname", Name: "Host rename"},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
