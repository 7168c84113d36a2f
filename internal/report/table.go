package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/status"
)

// TablePrinter prints run information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRun prints a detailed run report.
func (t *TablePrinter) PrintRun(state model.RunState, label model.StatusLabel) error {
	fmt.Fprintf(t.writer, "Run:        %s\n", state.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", label)
	fmt.Fprintf(t.writer, "Selected:   %d\n", state.Selection.Chosen())
	fmt.Fprintf(t.writer, "Checks:     %s\n", yesNo(state.EnvironmentChecksPassed))
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(state.StartedAt))

	if state.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(*state.FinishedAt))
	}

	if len(state.Applied) > 0 {
		fmt.Fprintln(t.writer)

		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

		// Print header.
		fmt.Fprintln(tw, "#\tTASK\tRESULT\tREVERSIBLE\tDETAIL")

		// Print rows in application order.
		for _, taskID := range state.Applied {
			r := state.Results[taskID]
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				r.Sequence, r.TaskID, taskOutcome(r), yesNo(r.Reversible), r.Error)
		}

		tw.Flush()
	}

	if state.RollbackTriggered {
		fmt.Fprintln(t.writer)
		fmt.Fprintf(t.writer, "Rollback:   %s\n", rollbackOutcome(state.RollbackSucceeded))

		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

		fmt.Fprintln(tw, "TASK\tCONFIRMED\tREVERSED\tDETAIL")
		for _, step := range state.Rollback {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				step.TaskID, yesNo(step.Confirmed), yesNo(step.Succeeded), step.Error)
		}

		tw.Flush()
	}

	return nil
}

// PrintRunList prints runs in a table format.
func (t *TablePrinter) PrintRunList(states []model.RunState) error {
	if len(states) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "RUN\tSTATUS\tTASKS\tSTARTED")

	// Print rows.
	for _, s := range states {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n",
			s.ID, status.Resolve(s), len(s.Applied), s.Selection.Chosen(), TimeAgo(s.StartedAt))
	}

	return nil
}

// PrintTaskList prints catalog tasks in a table format.
func (t *TablePrinter) PrintTaskList(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tNAME\tREVERSIBLE\tDESCRIPTION")

	// Print rows.
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			task.ID, task.Name, yesNo(task.Reversible), task.Description)
	}

	return nil
}

// PrintChecks prints environment check results in a table format.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	if len(results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "CHECK\tSTATUS\tMESSAGE")

	// Print rows.
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Status, r.Message)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func taskOutcome(r model.TaskResult) string {
	if r.Succeeded {
		return "applied"
	}
	return "failed"
}

func rollbackOutcome(succeeded bool) string {
	if succeeded {
		return "succeeded"
	}
	return "failed"
}
