package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/config"
	"github.com/mbourmaud/souk/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a souk.yaml interactively",
	Long: `Walk through the main settings and write a souk.yaml you can edit by
hand afterwards. Seller inventory keeps the sample catalog; edit the file to
list your own items.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); err == nil {
			overwrite, err := ui.PromptConfirm(fmt.Sprintf("%s already exists, overwrite?", cfgPath), false)
			if err != nil {
				return err
			}
			if !overwrite {
				return nil
			}
		}

		cfg := config.Default()
		if err := ui.ConfigWizard(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
