package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/pktdesc/internal/config"
	"firestige.xyz/pktdesc/internal/log"
	"firestige.xyz/pktdesc/internal/metrics"
	"firestige.xyz/pktdesc/internal/pipeline"
	"firestige.xyz/pktdesc/internal/sink/console"
	"firestige.xyz/pktdesc/internal/source/file"
)

type dissectOptions struct {
	*globalOptions
	readFile   string
	descriptor string
	format     string
	datalink   string
	limit      uint64
	fragments  bool
}

func newDissectCommand(global *globalOptions) *cobra.Command {
	opts := &dissectOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "dissect",
		Short: "Dissect a capture file and print descriptors",
		Long: `Dissect every packet of a pcap or pcapng file and print one descriptor
chain per packet on stdout. Flags override the config file.

Examples:
  pktdesc dissect -r trace.pcap                     # type2 descriptors as text
  pktdesc dissect -r trace.pcapng --descriptor type1
  pktdesc dissect -r trace.pcap --format yaml --fragments
  pktdesc dissect -r trace.pcap -c pktdesc.yml -n 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.readFile, "read", "r", "", "capture file to read (required)")
	cmd.Flags().StringVar(&opts.descriptor, "descriptor", "", "descriptor type (type1, type2)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "", "output format (text, yaml, hex)")
	cmd.Flags().StringVar(&opts.datalink, "datalink", "", "override the file link type (ethernet, linux_sll, raw, ipv4, ipv6)")
	cmd.Flags().Uint64VarP(&opts.limit, "limit", "n", 0, "stop after this many packets (0 = all)")
	cmd.Flags().BoolVar(&opts.fragments, "fragments", false, "chain an IP fragment descriptor to fragments")
	_ = cmd.MarkFlagRequired("read")
	return cmd
}

// applyFlags copies the flags the user set over the loaded config.
func (o *dissectOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("descriptor") {
		cfg.Dissector.Descriptor = o.descriptor
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("datalink") {
		cfg.Dissector.Datalink = o.datalink
	}
	if flags.Changed("fragments") {
		cfg.Output.Fragments = o.fragments
	}
	return cfg.ValidateAndApplyDefaults()
}

func (o *dissectOptions) run(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if err := o.applyFlags(cmd, cfg); err != nil {
		return err
	}
	logger := log.GetLogger()

	format, err := console.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	dissectorOpts, err := cfg.DissectorOptions()
	if err != nil {
		return err
	}

	src, err := file.NewSource(o.readFile)
	if err != nil {
		return err
	}
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	sink := console.NewSink(cmd.OutOrStdout(), format)
	defer sink.Close()

	b := pipeline.NewBuilder().
		WithSource(src).
		WithSink(sink).
		WithDescriptor(cfg.Dissector.DescriptorType(), dissectorOpts...).
		WithFragments(cfg.Output.Fragments).
		WithLimit(o.limit).
		WithBufferSize(cfg.Pipeline.BufferSize).
		WithSlotCount(cfg.Pipeline.SlotCount)
	if cfg.Dissector.Datalink != "" {
		link, err := config.ParseDatalink(cfg.Dissector.Datalink)
		if err != nil {
			return err
		}
		b.WithDatalink(link)
	}
	p, err := b.Build()
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				logger.WithError(err).Warn("metrics server shutdown failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		logger.Info("interrupted")
	}
	if stopErr := p.Stop(); err == nil {
		err = stopErr
	}
	if err != nil {
		return fmt.Errorf("dissect %s: %w", o.readFile, err)
	}

	packets, bytes := src.Stats()
	s := p.Stats()
	logger.WithFields(map[string]interface{}{
		"file":        o.readFile,
		"read":        packets,
		"read_bytes":  bytes,
		"dissected":   s.Dissected,
		"records":     s.Records,
		"fragments":   s.Fragments,
		"sink_errors": s.SinkErrors,
	}).Info("dissect finished")
	return nil
}
