package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/sstreeter/WINTOOLS/internal/model"
	storageio "github.com/sstreeter/WINTOOLS/internal/storage/io"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	planPath  string
	providers string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run the environment checks without executing any task.")
	c.Cmd.Flag("plan", "Path to the YAML plan file with the check command (required for command providers).").StringVar(&c.planPath)
	c.Cmd.Flag("providers", "Providers to check (fake, command).").Default(providersFake).EnumVar(&c.providers, providersFake, providersCommand)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	out := c.rootCmd.Stdout

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

	_, checker, err := buildProviders(c.rootCmd, c.providers, &plan)
	if err != nil {
		return err
	}
	if checker == nil {
		return fmt.Errorf("command providers need a check command in the plan file")
	}

	results, err := checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("could not run environment checks: %w", err)
	}

	// Print results
	totalErrors := 0
	totalWarnings := 0

	fmt.Fprintf(out, "Checking %s providers...\n", c.providers)
	for _, r := range results {
		icon := getStatusIcon(r.Status)
		fmt.Fprintf(out, "  %s %-20s %s\n", icon, r.ID, r.Message)

		switch r.Status {
		case model.CheckStatusError:
			totalErrors++
		case model.CheckStatusWarning:
			totalWarnings++
		}
	}

	// Summary
	fmt.Fprintln(out)
	if totalErrors == 0 && totalWarnings == 0 {
		fmt.Fprintln(out, "All checks passed!")
	} else {
		var summary []string
		if totalErrors > 0 {
			summary = append(summary, fmt.Sprintf("%d error(s)", totalErrors))
		}
		if totalWarnings > 0 {
			summary = append(summary, fmt.Sprintf("%d warning(s)", totalWarnings))
		}
		fmt.Fprintf(out, "%s\n", joinWithComma(summary))
	}

	// Return error if there are any errors
	if totalErrors > 0 {
		return fmt.Errorf("environment checks failed with %d error(s)", totalErrors)
	}

	return nil
}

func getStatusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}

func joinWithComma(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += ", " + parts[i]
	}
	return result
}
