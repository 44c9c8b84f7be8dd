package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danpasecinic/scopehost/config"
	"github.com/danpasecinic/scopehost/internal/demo"
)

func newServicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List registrations in the order hosts start them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			c, err := demo.Build(cfg, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			c.FprintServices(cmd.OutOrStdout())
			return nil
		},
	}
}
