package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/rollback"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".wintools", "wintools.db")
	app.Flag("db-path", "Path to the SQLite database file.").Envar("WINTOOLS_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)

	return c
}

// AuditPath returns the audit trail path, next to the run database.
func (c *RootCommand) AuditPath(fileName string) string {
	return filepath.Join(filepath.Dir(c.DBPath), fileName)
}

// newConfirmer returns the per-step rollback confirmer: automatic when the
// user passed --yes, interactive on stdin otherwise.
func newConfirmer(rootCmd *RootCommand, assumeYes bool) rollback.Confirmer {
	if assumeYes {
		return rollback.AutoConfirm
	}

	reader := bufio.NewReader(rootCmd.Stdin)
	return rollback.ConfirmerFunc(func(ctx context.Context, message string) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		fmt.Fprintf(rootCmd.Stdout, "%s [y/N]: ", message)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("could not read confirmation: %w", err)
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}
