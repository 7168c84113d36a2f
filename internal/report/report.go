package report

import "github.com/sstreeter/WINTOOLS/internal/model"

// Printer knows how to print run information in different formats.
type Printer interface {
	PrintRun(state model.RunState, label model.StatusLabel) error
	PrintRunList(states []model.RunState) error
	PrintTaskList(tasks []model.Task) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}
