package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sstreeter/WINTOOLS/internal/audit"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/report"
	"github.com/sstreeter/WINTOOLS/internal/rollback"
	"github.com/sstreeter/WINTOOLS/internal/status"
	storageio "github.com/sstreeter/WINTOOLS/internal/storage/io"
	"github.com/sstreeter/WINTOOLS/internal/storage/sqlite"
)

type RollbackCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID     string
	planPath  string
	providers string
	assumeYes bool
	format    string
}

// NewRollbackCommand returns the rollback command.
func NewRollbackCommand(rootCmd *RootCommand, app *kingpin.Application) *RollbackCommand {
	c := &RollbackCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("rollback", "Reverse the changes of a stored run.")
	c.Cmd.Flag("run", "Run ID to roll back (defaults to the latest run).").StringVar(&c.runID)
	c.Cmd.Flag("plan", "Path to the YAML plan file with command bindings (required for command providers).").StringVar(&c.planPath)
	c.Cmd.Flag("providers", "Providers backing the reversals (fake, command).").Default(providersFake).EnumVar(&c.providers, providersFake, providersCommand)
	c.Cmd.Flag("yes", "Confirm every rollback step without asking.").Short('y').BoolVar(&c.assumeYes)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c RollbackCommand) Name() string { return c.Cmd.FullCommand() }

func (c RollbackCommand) Run(ctx context.Context) error {
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

	if state.RollbackTriggered {
		return fmt.Errorf("run %s was already rolled back", state.ID)
	}

	// Initialize providers.
	var plan storageio.Plan
	if c.planPath != "" {
		abs, err := filepath.Abs(c.planPath)
		if err != nil {
			return fmt.Errorf("could not resolve plan path: %w", err)
		}
		planRepo := storageio.NewPlanYAMLRepository(os.DirFS(filepath.Dir(abs)))
		plan, err = planRepo.GetPlan(ctx, filepath.Base(abs))
		if err != nil {
			return fmt.Errorf("could not load plan: %w", err)
		}
	}

	registry, _, err := buildProviders(c.rootCmd, c.providers, &plan)
	if err != nil {
		return err
	}

	// Initialize audit trail.
	trail, err := audit.NewTrail(c.rootCmd.AuditPath(audit.DefaultFileName))
	if err != nil {
		return fmt.Errorf("could not create audit trail: %w", err)
	}

	// Create rollback engine.
	roller, err := rollback.NewService(rollback.ServiceConfig{
		Providers: registry,
		Confirmer: newConfirmer(c.rootCmd, c.assumeYes),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create rollback engine: %w", err)
	}

	// Execute rollback and persist the updated state.
	trail.Infof("rollback requested for run %s", state.ID)
	succeeded := roller.Rollback(ctx, state)

	if err := repo.SaveRun(ctx, *state); err != nil {
		return fmt.Errorf("could not persist run: %w", err)
	}

	if succeeded {
		trail.Infof("rollback of run %s succeeded (%d steps)", state.ID, len(state.Rollback))
	} else {
		trail.Errorf("rollback of run %s failed", state.ID)
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

	if !succeeded {
		return fmt.Errorf("rollback of run %s failed", state.ID)
	}

	return nil
}
