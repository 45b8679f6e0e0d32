package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/config"
	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/store"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "souk",
	Short: "🏺 SOUK - Automated price negotiation",
	Long: `SOUK - Buyer and seller agents haggling over a shared store.

Core Commands:
  simulate         Run a full buyer/seller simulation
  buyer            Run the buyer agent standalone (redis backend)
  seller           Run the seller agent standalone (redis backend)
  status           Show the negotiation dashboard

Inspection:
  activity         View the negotiation activity stream
  init             Generate a souk.yaml interactively`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetDefaultLevel(logger.LevelDebug)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "souk.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the configured file, falling back to defaults when it does
// not exist, and validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		return openRedisStore(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// openRedisStore connects to Redis regardless of the configured backend; the
// standalone agent and activity commands always need the shared store.
func openRedisStore(ctx context.Context, cfg *config.Config) (*store.RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Store.Redis.Addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Store.Redis.Addr, err)
	}
	return store.NewRedisStore(rdb), nil
}
