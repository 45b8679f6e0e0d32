package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/agent"
	"github.com/mbourmaud/souk/internal/config"
	"github.com/mbourmaud/souk/internal/event"
	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/market"
	"github.com/mbourmaud/souk/internal/monitor"
	"github.com/mbourmaud/souk/internal/store"
	"github.com/mbourmaud/souk/internal/strategy"
)

var (
	simDuration int
	simMode     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a full buyer/seller simulation",
	Long: `Run both agents for a bounded time and print the final summary.

Modes:
  integrated   Buyer and seller run as goroutines over one store (default)
  separate     Buyer and seller run as child processes over Redis

Examples:
  souk simulate                       # Integrated run with souk.yaml settings
  souk simulate --duration 30         # Stop after 30 seconds
  souk simulate --mode separate       # Spawn 'souk buyer' and 'souk seller'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if simDuration > 0 {
			cfg.Simulation.DurationSeconds = simDuration
		}
		if simMode != "" {
			cfg.Simulation.Mode = simMode
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}

		logger.Info("simulation starting: mode=%s duration=%ds", cfg.Simulation.Mode, cfg.Simulation.DurationSeconds)

		runCtx, cancel := context.WithTimeout(ctx, cfg.Simulation.Duration())
		defer cancel()

		switch cfg.Simulation.Mode {
		case config.ModeIntegrated:
			err = runIntegrated(runCtx, cfg, st)
		case config.ModeSeparate:
			err = runSeparate(runCtx, cfg)
		}
		if err != nil {
			return err
		}

		final, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), monitor.FinalReport(final))
		return nil
	},
}

// runIntegrated drives both agents as goroutines over the shared store, with
// the event dispatcher fanning transitions out to the debug log.
func runIntegrated(ctx context.Context, cfg *config.Config, st store.Store) error {
	buyerStrat, err := strategy.NewBuyer(cfg.Buyer.Params(), nil)
	if err != nil {
		return err
	}
	sellerStrat, err := strategy.NewSeller(cfg.Seller.Params(), nil)
	if err != nil {
		return err
	}

	disp := event.NewDispatcher(func(t agent.Transition) {
		logger.Debug("transition %s: %s %s $%d (round %d)", t.NegotiationID, t.Agent, t.Action, t.Amount, t.Round)
	}, 2, 64)
	disp.Start()
	defer disp.Stop()

	buyer := agent.NewBuyer(agent.BuyerOptions{
		ID:           cfg.Buyer.ID,
		Strategy:     buyerStrat,
		Store:        st,
		Source:       market.NewHTTPSource(cfg.Market.URL),
		Log:          logger.WithField("agent", cfg.Buyer.ID),
		PollInterval: cfg.Buyer.PollInterval(),
		MaxItems:     cfg.Buyer.MaxItems,
		Events:       disp,
	})
	seller := agent.NewSeller(agent.SellerOptions{
		ID:           cfg.Seller.ID,
		Strategy:     sellerStrat,
		Store:        st,
		Log:          logger.WithField("agent", cfg.Seller.ID),
		PollInterval: cfg.Seller.PollInterval(),
		Events:       disp,
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := buyer.Run(ctx); err != nil {
			errs <- fmt.Errorf("buyer: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := seller.Run(ctx); err != nil {
			errs <- fmt.Errorf("seller: %w", err)
		}
	}()

	wg.Wait()
	close(errs)
	return <-errs
}

// runSeparate spawns 'souk buyer' and 'souk seller' as child processes sharing
// the Redis store. Their output streams interleave on this terminal.
func runSeparate(ctx context.Context, cfg *config.Config) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate own binary: %w", err)
	}

	spawn := func(role string) *exec.Cmd {
		args := []string{role, "--config", cfgPath}
		if verbose {
			args = append(args, "-v")
		}
		c := exec.CommandContext(ctx, exe, args...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c
	}

	sellerProc := spawn("seller")
	if err := sellerProc.Start(); err != nil {
		return fmt.Errorf("failed to start seller: %w", err)
	}

	// Give the seller a moment to come up before the buyer opens offers.
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}

	buyerProc := spawn("buyer")
	if err := buyerProc.Start(); err != nil {
		_ = sellerProc.Process.Kill()
		return fmt.Errorf("failed to start buyer: %w", err)
	}

	buyerErr := buyerProc.Wait()
	sellerErr := sellerProc.Wait()

	// Context expiry kills the children; that is the normal end of a bounded
	// run, not a failure.
	if ctx.Err() != nil {
		return nil
	}
	if buyerErr != nil {
		return fmt.Errorf("buyer exited: %w", buyerErr)
	}
	if sellerErr != nil {
		return fmt.Errorf("seller exited: %w", sellerErr)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simDuration, "duration", 0, "Simulation duration in seconds (overrides config)")
	simulateCmd.Flags().StringVar(&simMode, "mode", "", "Simulation mode: integrated or separate (overrides config)")
}
