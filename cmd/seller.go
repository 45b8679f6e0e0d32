package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/agent"
	"github.com/mbourmaud/souk/internal/config"
	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/strategy"
)

var sellerCmd = &cobra.Command{
	Use:   "seller",
	Short: "Run the seller agent standalone",
	Long: `Run the seller agent as its own process against the shared Redis store.
It watches for buyer offers on its inventory and answers them.

Examples:
  souk seller               # Run with souk.yaml settings
  souk seller -v            # Run with debug logging`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Backend != config.BackendRedis {
			return fmt.Errorf("standalone seller requires the redis store backend")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openRedisStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		strat, err := strategy.NewSeller(cfg.Seller.Params(), nil)
		if err != nil {
			return err
		}

		seller := agent.NewSeller(agent.SellerOptions{
			ID:           cfg.Seller.ID,
			Strategy:     strat,
			Store:        st,
			Log:          logger.WithField("agent", cfg.Seller.ID),
			PollInterval: cfg.Seller.PollInterval(),
		})
		return seller.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(sellerCmd)
}
