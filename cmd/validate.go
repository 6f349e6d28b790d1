package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktdesc/internal/config"
)

func newValidateCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file without dissecting anything.

Examples:
  pktdesc validate -c pktdesc.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if global.configFile == "" {
				return fmt.Errorf("validate needs a config file (-c)")
			}
			cfg, err := config.Load(global.configFile)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %v\n", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "VALID: %s descriptors, %d extension(s), %s output\n",
				cfg.Dissector.Descriptor,
				len(cfg.Dissector.Extensions),
				cfg.Output.Format,
			)
			return nil
		},
	}
}
