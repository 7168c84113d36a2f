package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sstreeter/WINTOOLS/internal/catalog"
	"github.com/sstreeter/WINTOOLS/internal/report"
)

type TasksCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewTasksCommand returns the tasks command.
func NewTasksCommand(rootCmd *RootCommand, app *kingpin.Application) *TasksCommand {
	c := &TasksCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("tasks", "List the provisioning tasks in execution order.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TasksCommand) Name() string { return c.Cmd.FullCommand() }

func (c TasksCommand) Run(ctx context.Context) error {
	// Print output.
	var p report.Printer
	switch c.format {
	case "json":
		p = report.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = report.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintTaskList(catalog.Tasks()); err != nil {
		return fmt.Errorf("could not print tasks: %w", err)
	}

	return nil
}
