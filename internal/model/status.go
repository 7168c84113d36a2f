package model

// StatusLabel is the single resolved outcome classification for a completed
// or aborted run.
type StatusLabel string

const (
	// StatusCanceledPreflight indicates the run stopped because the
	// environment checks failed, before any task executed.
	StatusCanceledPreflight StatusLabel = "canceled-preflight"
	// StatusCanceled indicates the user exited before completion.
	StatusCanceled StatusLabel = "canceled"
	// StatusCanceledRollbackOK indicates the run was canceled and all
	// attempted reversals succeeded.
	StatusCanceledRollbackOK StatusLabel = "canceled-rollback-ok"
	// StatusCanceledRollbackFailed indicates the run was canceled and at
	// least one attempted reversal failed.
	StatusCanceledRollbackFailed StatusLabel = "canceled-rollback-failed"
	// StatusNoOperations indicates nothing was selected to run.
	StatusNoOperations StatusLabel = "no-operations"
	// StatusSuccess indicates every selected task succeeded.
	StatusSuccess StatusLabel = "success"
	// StatusPartialSuccess indicates at least one selected task failed.
	StatusPartialSuccess StatusLabel = "partial-success"
	// StatusFailed indicates an unexpected error with no rollback path taken.
	StatusFailed StatusLabel = "failed"
)
