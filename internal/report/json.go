package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/status"
)

// JSONPrinter prints run information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a run in the list output (subset of fields).
type listItem struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Applied   int       `json:"applied"`
	Selected  int       `json:"selected"`
	StartedAt time.Time `json:"started_at"`
}

// runOutput represents the full run report output.
type runOutput struct {
	ID                string           `json:"id"`
	Status            string           `json:"status"`
	ChecksPassed      bool             `json:"checks_passed"`
	Results           []resultOutput   `json:"results"`
	RollbackTriggered bool             `json:"rollback_triggered"`
	RollbackSucceeded bool             `json:"rollback_succeeded"`
	Rollback          []rollbackOutput `json:"rollback,omitempty"`
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        *time.Time       `json:"finished_at"`
}

// resultOutput represents a single task result.
type resultOutput struct {
	TaskID     string            `json:"task_id"`
	Sequence   int               `json:"sequence"`
	Succeeded  bool              `json:"succeeded"`
	Reversible bool              `json:"reversible"`
	Change     map[string]string `json:"change,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// rollbackOutput represents a single rollback step.
type rollbackOutput struct {
	TaskID    string `json:"task_id"`
	Confirmed bool   `json:"confirmed"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// taskOutput represents a catalog task.
type taskOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
}

// checkOutput represents an environment check result.
type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintRun prints a detailed run report in JSON format.
func (j *JSONPrinter) PrintRun(state model.RunState, label model.StatusLabel) error {
	output := runOutput{
		ID:                state.ID,
		Status:            string(label),
		ChecksPassed:      state.EnvironmentChecksPassed,
		Results:           make([]resultOutput, 0, len(state.Applied)),
		RollbackTriggered: state.RollbackTriggered,
		RollbackSucceeded: state.RollbackSucceeded,
		StartedAt:         state.StartedAt.UTC(),
		FinishedAt:        nil,
	}

	for _, taskID := range state.Applied {
		r := state.Results[taskID]
		output.Results = append(output.Results, resultOutput{
			TaskID:     r.TaskID,
			Sequence:   r.Sequence,
			Succeeded:  r.Succeeded,
			Reversible: r.Reversible,
			Change:     r.Change,
			Error:      r.Error,
		})
	}

	for _, step := range state.Rollback {
		output.Rollback = append(output.Rollback, rollbackOutput{
			TaskID:    step.TaskID,
			Confirmed: step.Confirmed,
			Succeeded: step.Succeeded,
			Error:     step.Error,
		})
	}

	if state.FinishedAt != nil {
		utcTime := state.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintRunList prints runs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(states []model.RunState) error {
	items := make([]listItem, len(states))
	for i, s := range states {
		items[i] = listItem{
			ID:        s.ID,
			Status:    string(status.Resolve(s)),
			Applied:   len(s.Applied),
			Selected:  s.Selection.Chosen(),
			StartedAt: s.StartedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintTaskList prints catalog tasks in JSON format.
func (j *JSONPrinter) PrintTaskList(tasks []model.Task) error {
	items := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		items[i] = taskOutput{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Reversible:  t.Reversible,
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintChecks prints environment check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	items := make([]checkOutput, len(results))
	for i, r := range results {
		items[i] = checkOutput{
			ID:      r.ID,
			Status:  string(r.Status),
			Message: r.Message,
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
