// Package status derives the single overall outcome label of a run. The
// precedence below is the source of truth for the human-facing summary.
package status

import (
	"github.com/sstreeter/WINTOOLS/internal/model"
)

// Resolve derives the status label from a run state. It is a pure function:
// first matching condition wins.
func Resolve(state model.RunState) model.StatusLabel {
	// 1. Pre-flight failure.
	if state.TerminatedEarly && !state.EnvironmentChecksPassed {
		return model.StatusCanceledPreflight
	}

	// 2. User exit before completion.
	if state.TerminatedEarly && state.EnvironmentChecksPassed {
		return model.StatusCanceled
	}

	// 3. Rollback path.
	if state.RollbackTriggered {
		if state.RollbackSucceeded {
			return model.StatusCanceledRollbackOK
		}
		return model.StatusCanceledRollbackFailed
	}

	// 4. Normal completion.
	if state.EnvironmentChecksPassed && !state.UnexpectedError {
		if state.Selection.Chosen() == 0 {
			return model.StatusNoOperations
		}
		if state.AllSelectedSucceeded() {
			return model.StatusSuccess
		}
		return model.StatusPartialSuccess
	}

	// 5. Unexpected error with no rollback path taken.
	return model.StatusFailed
}
