// Package command implements capability providers backed by configured
// shell command pairs. It lets a plan file bind each capability to the
// platform scripts that perform the real mutation, keeping the
// orchestration core free of OS-specific code.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sstreeter/WINTOOLS/internal/capability"
	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
)

// ExitCodeExpectedFailure is the conventional exit code an apply command
// uses to report an expected failure (permission denied, service
// unavailable). Any other non-zero exit is treated as unexpected.
const ExitCodeExpectedFailure = 2

// envPrefix is prepended to parameter and change record keys passed to
// commands as environment variables.
const envPrefix = "WINTOOLS_"

// Binding is the command pair bound to one capability.
type Binding struct {
	Apply  string
	Invert string
}

// ProviderConfig is the configuration for a command provider.
type ProviderConfig struct {
	Kind    model.CapabilityKind
	Binding Binding
	WorkDir string
	Logger  log.Logger
}

func (c *ProviderConfig) defaults() error {
	if c.Kind == "" {
		return fmt.Errorf("capability kind is required")
	}
	if c.Binding.Apply == "" {
		return fmt.Errorf("apply command is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "capability.Command", "capability": string(c.Kind)})
	return nil
}

// Provider runs configured shell commands for apply and invert.
type Provider struct {
	kind    model.CapabilityKind
	binding Binding
	workDir string
	logger  log.Logger
}

// NewProvider creates a new command provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Provider{
		kind:    cfg.Kind,
		binding: cfg.Binding,
		workDir: cfg.WorkDir,
		logger:  cfg.Logger,
	}, nil
}

// Apply runs the apply command with the task parameters as WINTOOLS_*
// environment variables. Exit 0 is success, exit 2 an expected failure,
// anything else an unexpected error. Stdout key=value lines become the
// change record.
func (p *Provider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	stdout, stderr, exitCode, err := p.run(ctx, p.binding.Apply, map[string]string(params))
	if err != nil {
		return nil, fmt.Errorf("could not run apply command: %w", err)
	}

	switch exitCode {
	case 0:
		change := parseChangeRecord(stdout)
		p.logger.Debugf("Apply command succeeded (%d change keys)", len(change))
		return &capability.Outcome{Succeeded: true, Change: change}, nil
	case ExitCodeExpectedFailure:
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = "apply command reported failure"
		}
		p.logger.Debugf("Apply command reported expected failure: %s", detail)
		return &capability.Outcome{Succeeded: false, Detail: detail}, nil
	default:
		return nil, fmt.Errorf("apply command exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
	}
}

// Invert runs the invert command with the change record as WINTOOLS_*
// environment variables.
func (p *Provider) Invert(ctx context.Context, change model.ChangeRecord) error {
	if p.binding.Invert == "" {
		return fmt.Errorf("capability %s has no invert command: %w", p.kind, model.ErrNotValid)
	}

	// Never delete an account that existed independently of the run.
	if p.kind == model.CapabilityAccountManagement && change.AccountPreExisted() {
		p.logger.Debugf("Account pre-existed, skipping invert command")
		return nil
	}

	_, stderr, exitCode, err := p.run(ctx, p.binding.Invert, map[string]string(change))
	if err != nil {
		return fmt.Errorf("could not run invert command: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("invert command exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
	}

	p.logger.Debugf("Invert command succeeded")
	return nil
}

func (p *Provider) run(ctx context.Context, command string, kv map[string]string) (stdout, stderr string, exitCode int, err error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if p.workDir != "" {
		cmd.Dir = p.workDir
	}
	cmd.Env = append(os.Environ(), envVars(kv)...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return "", "", 0, runErr
		}
		return outBuf.String(), errBuf.String(), exitErr.ExitCode(), nil
	}

	return outBuf.String(), errBuf.String(), 0, nil
}

// envVars converts a key-value map to WINTOOLS_* environment variable specs
// in a stable order.
func envVars(kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]string, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, fmt.Sprintf("%s%s=%s", envPrefix, strings.ToUpper(k), kv[k]))
	}
	return vars
}

// parseChangeRecord reads key=value lines from apply command stdout. Lines
// without an equals sign are ignored.
func parseChangeRecord(stdout string) model.ChangeRecord {
	change := model.ChangeRecord{}
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		change[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return change
}

// NewRegistry builds a provider registry from capability bindings.
func NewRegistry(bindings map[model.CapabilityKind]Binding, workDir string, logger log.Logger) (capability.Registry, error) {
	registry := capability.Registry{}
	for kind, binding := range bindings {
		provider, err := NewProvider(ProviderConfig{
			Kind:    kind,
			Binding: binding,
			WorkDir: workDir,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create provider for %s: %w", kind, err)
		}
		registry[kind] = provider
	}
	return registry, nil
}

// NewChecker returns an environment checker that runs the given command.
// Exit 0 passes the check, anything else fails it.
func NewChecker(checkCommand, workDir string, logger log.Logger) capability.EnvironmentChecker {
	if logger == nil {
		logger = log.Noop
	}

	return capability.EnvironmentCheckerFunc(func(ctx context.Context) ([]model.CheckResult, error) {
		p := &Provider{kind: "environment_check", logger: logger, workDir: workDir}
		_, stderr, exitCode, err := p.run(ctx, checkCommand, nil)
		if err != nil {
			return nil, fmt.Errorf("could not run check command: %w", err)
		}

		if exitCode != 0 {
			msg := strings.TrimSpace(stderr)
			if msg == "" {
				msg = fmt.Sprintf("check command exited with code %d", exitCode)
			}
			return []model.CheckResult{
				{ID: "environment_check", Message: msg, Status: model.CheckStatusError},
			}, nil
		}

		return []model.CheckResult{
			{ID: "environment_check", Message: "check command passed", Status: model.CheckStatusOK},
		}, nil
	})
}
