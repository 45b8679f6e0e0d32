package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/agent"
	"github.com/mbourmaud/souk/internal/config"
	"github.com/mbourmaud/souk/internal/logger"
	"github.com/mbourmaud/souk/internal/market"
	"github.com/mbourmaud/souk/internal/strategy"
)

var buyerCmd = &cobra.Command{
	Use:   "buyer",
	Short: "Run the buyer agent standalone",
	Long: `Run the buyer agent as its own process against the shared Redis store.
Pair it with 'souk seller' in another terminal to watch them haggle.

Examples:
  souk buyer                # Run with souk.yaml settings
  souk buyer -v             # Run with debug logging`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Backend != config.BackendRedis {
			return fmt.Errorf("standalone buyer requires the redis store backend")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openRedisStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		strat, err := strategy.NewBuyer(cfg.Buyer.Params(), nil)
		if err != nil {
			return err
		}

		buyer := agent.NewBuyer(agent.BuyerOptions{
			ID:           cfg.Buyer.ID,
			Strategy:     strat,
			Store:        st,
			Source:       market.NewHTTPSource(cfg.Market.URL),
			Log:          logger.WithField("agent", cfg.Buyer.ID),
			PollInterval: cfg.Buyer.PollInterval(),
			MaxItems:     cfg.Buyer.MaxItems,
		})
		return buyer.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(buyerCmd)
}
