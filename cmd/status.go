package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/monitor"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the negotiation dashboard",
	Long: `Show active negotiations, completed deals and agent availability from
the shared store.

Examples:
  souk status               # One-shot snapshot
  souk status -w            # Redraw every 2 seconds until interrupted`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if statusWatch {
			return monitor.New(st, cmd.OutOrStdout(), 2*time.Second).Run(ctx)
		}

		snap, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), monitor.Render(snap))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Redraw the dashboard until interrupted")
}
