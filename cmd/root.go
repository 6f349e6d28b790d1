// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktdesc/internal/config"
	"firestige.xyz/pktdesc/internal/log"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pktdesc",
		Short: "pktdesc - zero-copy packet dissector and descriptor engine",
		Long: `pktdesc walks the headers of captured packets without copying them and
writes a compact descriptor per packet: a fixed summary (type1) or a
summary plus one offset/length record per header (type2).

Features:
  - Ethernet, Linux SLL and raw IP framing
  - VLAN, MPLS, IPv4 options, IPv6 extension headers, TCP options
  - VXLAN, Geneve and GRE tunnels through dissector extensions
  - IP fragment descriptors chained behind the packet descriptor`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file path (defaults only when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newDissectCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newExtensionsCommand())
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the config file, applies the global overrides and
// installs the logger.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	log.Init(&cfg.Log)
	return cfg, nil
}
