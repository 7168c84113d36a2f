package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/status"
)

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		state    func() model.RunState
		expLabel model.StatusLabel
	}{
		"Failing environment checks end as canceled-preflight": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.TerminatedEarly = true
				return *s
			},
			expLabel: model.StatusCanceledPreflight,
		},

		"User exit after passing checks ends as canceled": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.EnvironmentChecksPassed = true
				s.TerminatedEarly = true
				return *s
			},
			expLabel: model.StatusCanceled,
		},

		"Preflight failure wins over a triggered rollback": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.TerminatedEarly = true
				s.RollbackTriggered = true
				s.RollbackSucceeded = true
				return *s
			},
			expLabel: model.StatusCanceledPreflight,
		},

		"Successful rollback ends as canceled-rollback-ok": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.EnvironmentChecksPassed = true
				s.UnexpectedError = true
				s.RollbackTriggered = true
				s.RollbackSucceeded = true
				return *s
			},
			expLabel: model.StatusCanceledRollbackOK,
		},

		"Failed rollback ends as canceled-rollback-failed": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.EnvironmentChecksPassed = true
				s.UnexpectedError = true
				s.RollbackTriggered = true
				return *s
			},
			expLabel: model.StatusCanceledRollbackFailed,
		},

		"Empty selection with passing checks ends as no-operations": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{})
				s.EnvironmentChecksPassed = true
				return *s
			},
			expLabel: model.StatusNoOperations,
		},

		"Selection with only false entries counts as no-operations": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": false, "rdp": false})
				s.EnvironmentChecksPassed = true
				return *s
			},
			expLabel: model.StatusNoOperations,
		},

		"All selected tasks succeeded ends as success": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true, "rdp": true})
				s.EnvironmentChecksPassed = true
				s.RecordResult(model.TaskResult{TaskID: "hostname", Sequence: 1, Attempted: true, Succeeded: true})
				s.RecordResult(model.TaskResult{TaskID: "rdp", Sequence: 2, Attempted: true, Succeeded: true})
				return *s
			},
			expLabel: model.StatusSuccess,
		},

		"A reported task failure ends as partial-success": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true, "rdp": true})
				s.EnvironmentChecksPassed = true
				s.RecordResult(model.TaskResult{TaskID: "hostname", Sequence: 1, Attempted: true, Succeeded: true})
				s.RecordResult(model.TaskResult{TaskID: "rdp", Sequence: 2, Attempted: true, Succeeded: false, Error: "access denied"})
				return *s
			},
			expLabel: model.StatusPartialSuccess,
		},

		"All selected tasks failing expectedly still ends as partial-success": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.EnvironmentChecksPassed = true
				s.RecordResult(model.TaskResult{TaskID: "hostname", Sequence: 1, Attempted: true, Succeeded: false, Error: "access denied"})
				return *s
			},
			expLabel: model.StatusPartialSuccess,
		},

		"Unexpected error without a rollback ends as failed": {
			state: func() model.RunState {
				s := model.NewRunState("test", model.Selection{"hostname": true})
				s.EnvironmentChecksPassed = true
				s.UnexpectedError = true
				s.RecordResult(model.TaskResult{TaskID: "hostname", Sequence: 1, Attempted: true, Error: "registry unreadable"})
				return *s
			},
			expLabel: model.StatusFailed,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expLabel, status.Resolve(tt.state()))
		})
	}
}
