package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/sstreeter/WINTOOLS/internal/capability"
	"github.com/sstreeter/WINTOOLS/internal/log"
	"github.com/sstreeter/WINTOOLS/internal/model"
)

// MachineConfig is the configuration for the fake machine.
type MachineConfig struct {
	Hostname string
	Accounts []string
	Logger   log.Logger
}

func (c *MachineConfig) defaults() error {
	if c.Hostname == "" {
		c.Hostname = "fake-host"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "capability.Fake"})
	return nil
}

// Machine is an in-memory simulated workstation. It backs one provider per
// capability kind so runs and rollbacks can be exercised without touching a
// real machine.
type Machine struct {
	mu sync.Mutex

	hostname   string
	accounts   map[string]bool
	rdpEnabled bool
	sshRunning bool
	powerPlan  string
	activated  bool

	denials    map[model.CapabilityKind]string
	failures   map[model.CapabilityKind]error
	checkFails bool

	logger log.Logger
}

// NewMachine creates a new fake machine.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	accounts := map[string]bool{}
	for _, a := range cfg.Accounts {
		accounts[a] = true
	}

	return &Machine{
		hostname:  cfg.Hostname,
		accounts:  accounts,
		powerPlan: "balanced",
		denials:   map[model.CapabilityKind]string{},
		failures:  map[model.CapabilityKind]error{},
		logger:    cfg.Logger,
	}, nil
}

// DenyWith makes the provider for the given capability report an expected
// failure with the given reason.
func (m *Machine) DenyWith(kind model.CapabilityKind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denials[kind] = reason
}

// FailWith makes the provider for the given capability raise an unexpected
// error.
func (m *Machine) FailWith(kind model.CapabilityKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind] = err
}

// FailChecks makes the environment checker report a failing check.
func (m *Machine) FailChecks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkFails = true
}

// Registry returns providers for all capability kinds, backed by this
// machine.
func (m *Machine) Registry() capability.Registry {
	return capability.Registry{
		model.CapabilityAccountManagement: &accountProvider{m: m},
		model.CapabilityHostRename:        &hostnameProvider{m: m},
		model.CapabilityRemoteDesktop:     &toggleProvider{m: m, kind: model.CapabilityRemoteDesktop},
		model.CapabilitySSHService:        &toggleProvider{m: m, kind: model.CapabilitySSHService},
		model.CapabilityPowerPolicy:       &powerProvider{m: m},
		model.CapabilityActivation:        &activationProvider{m: m},
	}
}

// Checker returns the fake environment checker.
func (m *Machine) Checker() capability.EnvironmentChecker {
	return capability.EnvironmentCheckerFunc(func(ctx context.Context) ([]model.CheckResult, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.checkFails {
			return []model.CheckResult{
				{ID: "admin_privileges", Message: "process is not elevated", Status: model.CheckStatusError},
			}, nil
		}
		return []model.CheckResult{
			{ID: "admin_privileges", Message: "process is elevated", Status: model.CheckStatusOK},
			{ID: "os_supported", Message: "fake machine is always supported", Status: model.CheckStatusOK},
		}, nil
	})
}

// Test accessors. They expose the simulated machine state.

func (m *Machine) Hostname() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hostname
}

func (m *Machine) HasAccount(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[name]
}

func (m *Machine) RDPEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rdpEnabled
}

func (m *Machine) SSHRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sshRunning
}

func (m *Machine) PowerPlan() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerPlan
}

func (m *Machine) Activated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activated
}

// injected returns the configured denial or failure for a capability, if
// any. Caller must hold the lock.
func (m *Machine) injected(kind model.CapabilityKind) (*capability.Outcome, error) {
	if err := m.failures[kind]; err != nil {
		return nil, err
	}
	if reason, ok := m.denials[kind]; ok {
		return &capability.Outcome{Succeeded: false, Detail: reason}, nil
	}
	return nil, nil
}

type accountProvider struct {
	m *Machine
}

func (p *accountProvider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if out, err := p.m.injected(model.CapabilityAccountManagement); out != nil || err != nil {
		return out, err
	}

	username := params["username"]
	if username == "" {
		return &capability.Outcome{Succeeded: false, Detail: "username is required"}, nil
	}

	preExisted := p.m.accounts[username]
	p.m.accounts[username] = true
	p.m.logger.Debugf("Fake account ensured: %s (pre-existed: %t)", username, preExisted)

	return &capability.Outcome{
		Succeeded: true,
		Change: model.ChangeRecord{
			"username":                       username,
			model.ChangeKeyAccountPreExisted: fmt.Sprintf("%t", preExisted),
		},
	}, nil
}

func (p *accountProvider) Invert(ctx context.Context, change model.ChangeRecord) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	username := change["username"]
	if username == "" {
		return fmt.Errorf("change record has no username: %w", model.ErrNotValid)
	}

	// Never delete an account that existed independently of the run.
	if change.AccountPreExisted() {
		p.m.logger.Debugf("Account %s pre-existed, leaving it in place", username)
		return nil
	}

	delete(p.m.accounts, username)
	p.m.logger.Debugf("Fake account removed: %s", username)
	return nil
}

type hostnameProvider struct {
	m *Machine
}

func (p *hostnameProvider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if out, err := p.m.injected(model.CapabilityHostRename); out != nil || err != nil {
		return out, err
	}

	newName := params["hostname"]
	if newName == "" {
		return &capability.Outcome{Succeeded: false, Detail: "hostname is required"}, nil
	}

	if p.m.hostname == newName {
		// Already in the desired state, nothing to invert.
		return &capability.Outcome{Succeeded: true, Detail: "hostname already set"}, nil
	}

	old := p.m.hostname
	p.m.hostname = newName
	p.m.logger.Debugf("Fake hostname renamed: %s -> %s", old, newName)

	return &capability.Outcome{
		Succeeded: true,
		Change: model.ChangeRecord{
			"old_hostname": old,
			"new_hostname": newName,
		},
	}, nil
}

func (p *hostnameProvider) Invert(ctx context.Context, change model.ChangeRecord) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	old := change["old_hostname"]
	if old == "" {
		return fmt.Errorf("change record has no old hostname: %w", model.ErrNotValid)
	}

	p.m.hostname = old
	p.m.logger.Debugf("Fake hostname restored: %s", old)
	return nil
}

// toggleProvider covers the capabilities that flip a single enabled flag
// (remote desktop, SSH service).
type toggleProvider struct {
	m    *Machine
	kind model.CapabilityKind
}

func (p *toggleProvider) flag() *bool {
	if p.kind == model.CapabilityRemoteDesktop {
		return &p.m.rdpEnabled
	}
	return &p.m.sshRunning
}

func (p *toggleProvider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if out, err := p.m.injected(p.kind); out != nil || err != nil {
		return out, err
	}

	flag := p.flag()
	previous := *flag
	*flag = true
	p.m.logger.Debugf("Fake %s enabled (was enabled: %t)", p.kind, previous)

	return &capability.Outcome{
		Succeeded: true,
		Change: model.ChangeRecord{
			"previous_enabled": fmt.Sprintf("%t", previous),
		},
	}, nil
}

func (p *toggleProvider) Invert(ctx context.Context, change model.ChangeRecord) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	*p.flag() = change["previous_enabled"] == "true"
	p.m.logger.Debugf("Fake %s restored to previous state", p.kind)
	return nil
}

type powerProvider struct {
	m *Machine
}

func (p *powerProvider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if out, err := p.m.injected(model.CapabilityPowerPolicy); out != nil || err != nil {
		return out, err
	}

	plan := params["plan"]
	if plan == "" {
		plan = "always-on"
	}

	old := p.m.powerPlan
	p.m.powerPlan = plan
	p.m.logger.Debugf("Fake power plan set: %s -> %s", old, plan)

	return &capability.Outcome{
		Succeeded: true,
		Change: model.ChangeRecord{
			"old_plan": old,
			"new_plan": plan,
		},
	}, nil
}

func (p *powerProvider) Invert(ctx context.Context, change model.ChangeRecord) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	old := change["old_plan"]
	if old == "" {
		return fmt.Errorf("change record has no old plan: %w", model.ErrNotValid)
	}

	p.m.powerPlan = old
	p.m.logger.Debugf("Fake power plan restored: %s", old)
	return nil
}

type activationProvider struct {
	m *Machine
}

func (p *activationProvider) Apply(ctx context.Context, params model.TaskParams) (*capability.Outcome, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	if out, err := p.m.injected(model.CapabilityActivation); out != nil || err != nil {
		return out, err
	}

	if params["product_key"] == "" {
		return &capability.Outcome{Succeeded: false, Detail: "product key is required"}, nil
	}

	p.m.activated = true
	p.m.logger.Debugf("Fake activation done")

	return &capability.Outcome{Succeeded: true}, nil
}

func (p *activationProvider) Invert(ctx context.Context, change model.ChangeRecord) error {
	// Activation is not reversible.
	return fmt.Errorf("activation cannot be reversed: %w", model.ErrNotValid)
}
