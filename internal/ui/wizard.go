package ui

import (
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/mbourmaud/souk/internal/config"
)

// ConfigWizard walks the user through the handful of settings worth tuning
// and mutates cfg in place. Everything else keeps its default.
func ConfigWizard(cfg *config.Config) error {
	return ConfigWizardWithStdio(cfg, defaultStdio())
}

// ConfigWizardWithStdio is like ConfigWizard but with custom stdio for testing
func ConfigWizardWithStdio(cfg *config.Config, stdio terminal.Stdio) error {
	backend, err := PromptSelectWithStdio("Store backend", []string{config.BackendMemory, config.BackendRedis}, stdio)
	if err != nil {
		return err
	}
	cfg.Store.Backend = backend

	if backend == config.BackendRedis {
		addr, err := PromptDefaultWithStdio("Redis address", cfg.Store.Redis.Addr, stdio)
		if err != nil {
			return err
		}
		cfg.Store.Redis.Addr = addr
	}

	budget, err := PromptIntWithStdio("Buyer budget ($)", cfg.Buyer.Budget, stdio)
	if err != nil {
		return err
	}
	cfg.Buyer.Budget = budget

	rounds, err := PromptIntWithStdio("Max negotiation rounds", cfg.Buyer.MaxRounds, stdio)
	if err != nil {
		return err
	}
	cfg.Buyer.MaxRounds = rounds

	mode := config.ModeIntegrated
	if backend == config.BackendRedis {
		mode, err = PromptSelectWithStdio("Simulation mode", []string{config.ModeIntegrated, config.ModeSeparate}, stdio)
		if err != nil {
			return err
		}
	}
	cfg.Simulation.Mode = mode

	duration, err := PromptIntWithStdio("Simulation duration (seconds)", cfg.Simulation.DurationSeconds, stdio)
	if err != nil {
		return err
	}
	cfg.Simulation.DurationSeconds = duration

	return nil
}
