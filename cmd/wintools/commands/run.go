package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sstreeter/WINTOOLS/internal/audit"
	"github.com/sstreeter/WINTOOLS/internal/catalog"
	"github.com/sstreeter/WINTOOLS/internal/model"
	"github.com/sstreeter/WINTOOLS/internal/orchestrator"
	"github.com/sstreeter/WINTOOLS/internal/policy"
	"github.com/sstreeter/WINTOOLS/internal/report"
	"github.com/sstreeter/WINTOOLS/internal/rollback"
	"github.com/sstreeter/WINTOOLS/internal/status"
	storageio "github.com/sstreeter/WINTOOLS/internal/storage/io"
	"github.com/sstreeter/WINTOOLS/internal/storage/sqlite"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	planPath  string
	tasks     []string
	providers string
	assumeYes bool
	format    string

	// Convenience parameter flags, plan file params take precedence.
	hostname   string
	username   string
	powerPlan  string
	productKey string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Execute a provisioning run.")
	c.Cmd.Flag("plan", "Path to a YAML plan file with tasks, params and command bindings.").StringVar(&c.planPath)
	c.Cmd.Flag("task", "Task to run (repeatable, see the tasks command).").StringsVar(&c.tasks)
	c.Cmd.Flag("providers", "Providers backing the tasks (fake, command).").Default(providersFake).EnumVar(&c.providers, providersFake, providersCommand)
	c.Cmd.Flag("yes", "Confirm every rollback step without asking.").Short('y').BoolVar(&c.assumeYes)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	c.Cmd.Flag("hostname", "New hostname for the host rename task.").StringVar(&c.hostname)
	c.Cmd.Flag("username", "Username for the account setup task.").StringVar(&c.username)
	c.Cmd.Flag("power-plan", "Power plan for the power policy task.").StringVar(&c.powerPlan)
	c.Cmd.Flag("product-key", "Product key for the activation task.").StringVar(&c.productKey)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Assemble the plan from the plan file or from the flags.
	plan, err := c.plan(ctx)
	if err != nil {
		return err
	}
	if plan.Selection.Chosen() == 0 && c.planPath == "" {
		return fmt.Errorf("no tasks selected, use --plan or --task")
	}

	// Initialize providers.
	registry, checker, err := buildProviders(c.rootCmd, c.providers, &plan)
	if err != nil {
		return err
	}
	if checker == nil {
		return fmt.Errorf("command providers need a check command in the plan file")
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

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

	// Create orchestrator.
	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Providers:  registry,
		Checker:    checker,
		Roller:     roller,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}

	// Execute run.
	trail.Infof("run requested (%d tasks, providers: %s)", plan.Selection.Chosen(), c.providers)
	state, err := svc.Run(ctx, orchestrator.RunOptions{
		Selection: plan.Selection,
		Params:    plan.Params,
	})
	if err != nil {
		trail.Errorf("run could not start: %s", err)
		return fmt.Errorf("could not execute run: %w", err)
	}

	label := status.Resolve(*state)
	c.auditOutcome(trail, state, label)

	// Print output.
	var p report.Printer
	switch c.format {
	case "json":
		p = report.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = report.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintRun(*state, label); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	switch label {
	case model.StatusFailed, model.StatusCanceledPreflight, model.StatusCanceledRollbackFailed:
		return fmt.Errorf("run %s finished with status %s", state.ID, label)
	}

	return nil
}

// plan loads the plan file or builds a plan from the selection and
// parameter flags.
func (c RunCommand) plan(ctx context.Context) (storageio.Plan, error) {
	if c.planPath != "" {
		abs, err := filepath.Abs(c.planPath)
		if err != nil {
			return storageio.Plan{}, fmt.Errorf("could not resolve plan path: %w", err)
		}

		planRepo := storageio.NewPlanYAMLRepository(os.DirFS(filepath.Dir(abs)))
		plan, err := planRepo.GetPlan(ctx, filepath.Base(abs))
		if err != nil {
			return storageio.Plan{}, fmt.Errorf("could not load plan: %w", err)
		}
		return plan, nil
	}

	plan := storageio.Plan{
		Selection: model.Selection{},
		Params:    model.RunParams{},
	}

	for _, id := range c.tasks {
		if _, err := catalog.Get(id); err != nil {
			return storageio.Plan{}, fmt.Errorf("unknown task %q (known: %v)", id, catalog.TaskIDs())
		}
		plan.Selection[id] = true
	}

	if c.hostname != "" {
		plan.Params["hostname"] = model.TaskParams{"hostname": policy.SanitizeHostname(c.hostname)}
	}
	if c.username != "" {
		plan.Params["account"] = model.TaskParams{"username": policy.SanitizeUsername(c.username)}
	}
	if c.powerPlan != "" {
		plan.Params["power"] = model.TaskParams{"plan": c.powerPlan}
	}
	if c.productKey != "" {
		plan.Params["activation"] = model.TaskParams{"product_key": c.productKey}
	}

	return plan, nil
}

// auditOutcome writes the final run status to the audit trail with a level
// matching its severity.
func (c RunCommand) auditOutcome(trail *audit.Trail, state *model.RunState, label model.StatusLabel) {
	switch label {
	case model.StatusSuccess, model.StatusNoOperations:
		trail.Infof("run %s finished: %s", state.ID, label)
	case model.StatusPartialSuccess, model.StatusCanceled, model.StatusCanceledRollbackOK:
		trail.Warningf("run %s finished: %s", state.ID, label)
	default:
		trail.Errorf("run %s finished: %s", state.ID, label)
	}
}
