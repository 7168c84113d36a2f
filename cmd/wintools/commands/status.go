package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/report"
	"github.com/sstreeter/WINTOOLS/internal/status"
	"github.com/sstreeter/WINTOOLS/internal/storage/sqlite"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Show the detailed report of a stored run.")
	c.Cmd.Flag("run", "Run ID to show (defaults to the latest run).").StringVar(&c.runID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Load run state.
	var state *model.RunState
	if c.runID != "" {
		state, err = repo.GetRun(ctx, c.runID)
	} else {
		state, err = repo.GetLatestRun(ctx)
	}
	if err != nil {
		return fmt.Errorf("could not load run: %w", err)
	}

	// Print output.
	var p report.Printer
	switch c.format {
	case "json":
		p = report.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = report.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintRun(*state, status.Resolve(*state)); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}
